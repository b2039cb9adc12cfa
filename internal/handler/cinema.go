package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/hdfuturetech/cinema-booking/internal/model"
    "github.com/hdfuturetech/cinema-booking/internal/service"
)

// CinemaHandler serves /api/cinemas.  Every :id accepts a native id or an
// identifier code.
type CinemaHandler struct {
    svc *service.CinemaService
}

func NewCinemaHandler(svc *service.CinemaService) *CinemaHandler {
    if svc == nil {
        panic("nil cinema service passed to NewCinemaHandler")
    }
    return &CinemaHandler{svc: svc}
}

type locationReq struct {
    Address  string `json:"address" validate:"required"`
    District string `json:"district"`
    City     string `json:"city" validate:"required"`
}

type cinemaReq struct {
    Identifier *string     `json:"identifier" validate:"omitempty,max=64"`
    Name       string      `json:"name" validate:"required,max=100"`
    Location   locationReq `json:"location"`
}

type ensureCinemaReq struct {
    Identifier string `json:"identifier" validate:"required,max=64"`
}

func (r cinemaReq) toModel() *model.Cinema {
    return &model.Cinema{
        Identifier: r.Identifier,
        Name:       strings.TrimSpace(r.Name),
        Location: model.Location{
            Address:  strings.TrimSpace(r.Location.Address),
            District: strings.TrimSpace(r.Location.District),
            City:     strings.TrimSpace(r.Location.City),
        },
    }
}

func (h *CinemaHandler) bindCinema(c echo.Context) (*model.Cinema, error) {
    var req cinemaReq
    if err := c.Bind(&req); err != nil {
        return nil, badBody(err)
    }
    if err := c.Validate(&req); err != nil {
        return nil, err
    }
    return req.toModel(), nil
}

func (h *CinemaHandler) List(c echo.Context) error {
    cinemas, err := h.svc.List(c.Request().Context())
    if err != nil {
        return err
    }
    return listResponse(c, cinemas)
}

func (h *CinemaHandler) ByCity(c echo.Context) error {
    cinemas, err := h.svc.ByCity(c.Request().Context(), c.Param("city"))
    if err != nil {
        return err
    }
    return listResponse(c, cinemas)
}

func (h *CinemaHandler) Get(c echo.Context) error {
    cn, err := h.svc.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": cn})
}

func (h *CinemaHandler) Create(c echo.Context) error {
    cn, err := h.bindCinema(c)
    if err != nil {
        return err
    }
    created, err := h.svc.Create(c.Request().Context(), cn)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": created})
}

// Ensure materialises the cinema for an identifier code.  It answers 201
// when the cinema was created by this call and 200 when it already existed.
func (h *CinemaHandler) Ensure(c echo.Context) error {
    var req ensureCinemaReq
    if err := c.Bind(&req); err != nil {
        return badBody(err)
    }
    if err := c.Validate(&req); err != nil {
        return err
    }
    cn, created, err := h.svc.Ensure(c.Request().Context(), req.Identifier)
    if err != nil {
        return err
    }
    status := http.StatusOK
    if created {
        status = http.StatusCreated
    }
    return c.JSON(status, echo.Map{"success": true, "created": created, "data": cn})
}

func (h *CinemaHandler) Update(c echo.Context) error {
    cn, err := h.bindCinema(c)
    if err != nil {
        return err
    }
    updated, err := h.svc.Update(c.Request().Context(), c.Param("id"), cn)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated})
}

func (h *CinemaHandler) Delete(c echo.Context) error {
    if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{}})
}
