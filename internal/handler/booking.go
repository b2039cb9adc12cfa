package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/hdfuturetech/cinema-booking/internal/middleware"
    "github.com/hdfuturetech/cinema-booking/internal/model"
    "github.com/hdfuturetech/cinema-booking/internal/service"
)

// BookingHandler serves /api/bookings.
type BookingHandler struct {
    svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
    if svc == nil {
        panic("nil booking service passed to NewBookingHandler")
    }
    return &BookingHandler{svc: svc}
}

// ----- DTOs -----

// Booking input is checked by the service rather than validator tags; a
// zero value here means "not provided".
type createBookingReq struct {
    MovieID     string         `json:"movieId"`
    CinemaID    string         `json:"cinemaId"`
    Showtime    model.Showtime `json:"showtime"`
    Seats       []string       `json:"seats"`
    TotalAmount float64        `json:"totalAmount"`
}

type checkSeatsReq struct {
    MovieID  string         `json:"movieId"`
    CinemaID string         `json:"cinemaId"`
    Showtime model.Showtime `json:"showtime"`
    Seats    []string       `json:"seats"`
}

type bookingStatusReq struct {
    BookingStatus string `json:"bookingStatus"`
}

type paymentStatusReq struct {
    PaymentStatus string `json:"paymentStatus"`
}

func principal(c echo.Context) model.Principal {
    p, _ := middleware.PrincipalFrom(c)
    return p
}

// Create books seats for the caller.
func (h *BookingHandler) Create(c echo.Context) error {
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return badBody(err)
    }
    b, err := h.svc.CreateBooking(c.Request().Context(), principal(c), service.CreateBookingInput{
        MovieID:     req.MovieID,
        CinemaID:    req.CinemaID,
        Showtime:    req.Showtime,
        Seats:       req.Seats,
        TotalAmount: req.TotalAmount,
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "success": true,
        "message": "Booking created successfully",
        "data":    b,
    })
}

// List returns the caller's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
    list, err := h.svc.ListBookings(c.Request().Context(), principal(c))
    if err != nil {
        return err
    }
    if list == nil {
        list = []*model.BookingSummary{}
    }
    return c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) Get(c echo.Context) error {
    b, err := h.svc.GetBooking(c.Request().Context(), principal(c), c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
    var req bookingStatusReq
    if err := c.Bind(&req); err != nil {
        return badBody(err)
    }
    b, err := h.svc.UpdateBookingStatus(c.Request().Context(), principal(c), c.Param("id"), req.BookingStatus)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "Booking status updated successfully",
        "data":    b,
    })
}

func (h *BookingHandler) UpdatePayment(c echo.Context) error {
    var req paymentStatusReq
    if err := c.Bind(&req); err != nil {
        return badBody(err)
    }
    b, err := h.svc.UpdatePaymentStatus(c.Request().Context(), principal(c), c.Param("id"), req.PaymentStatus)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "Payment status updated successfully",
        "data":    b,
    })
}

// CheckSeats is public: it reports which requested seats of a showtime are
// already taken.
func (h *BookingHandler) CheckSeats(c echo.Context) error {
    var req checkSeatsReq
    if err := c.Bind(&req); err != nil {
        return badBody(err)
    }
    res, err := h.svc.Seats().CheckAvailability(c.Request().Context(), service.CheckSeatsInput{
        MovieID:  req.MovieID,
        CinemaID: req.CinemaID,
        Showtime: req.Showtime,
        Seats:    req.Seats,
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, res)
}
