package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/hdfuturetech/cinema-booking/internal/model"
    "github.com/hdfuturetech/cinema-booking/internal/service"
)

// MovieHandler serves the movie catalogue under /api/movies.
type MovieHandler struct {
    svc *service.MovieService
}

func NewMovieHandler(svc *service.MovieService) *MovieHandler {
    if svc == nil {
        panic("nil movie service passed to NewMovieHandler")
    }
    return &MovieHandler{svc: svc}
}

type movieShowtimeReq struct {
    CinemaID string         `json:"cinema" validate:"required"`
    Date     model.ShowDate `json:"date" validate:"required"`
    Times    []string       `json:"times" validate:"dive,required"`
}

type movieReq struct {
    Title       string             `json:"title" validate:"required,max=100"`
    Description string             `json:"description" validate:"required"`
    Duration    int                `json:"duration" validate:"required,min=1"`
    ReleaseDate model.ShowDate     `json:"releaseDate" validate:"required"`
    PosterURL   string             `json:"posterUrl"`
    TrailerURL  string             `json:"trailerUrl"`
    Genre       []string           `json:"genre" validate:"required,min=1,dive,required"`
    Director    string             `json:"director" validate:"required"`
    Cast        []string           `json:"cast" validate:"required,min=1,dive,required"`
    Rating      *float64           `json:"rating" validate:"omitempty,min=0,max=5"`
    IsShowing   *bool              `json:"isShowing"`
    Showtimes   []movieShowtimeReq `json:"showtimes" validate:"dive"`
}

// toModel applies the catalogue defaults: rating 0 and showing.
func (r movieReq) toModel() *model.Movie {
    m := &model.Movie{
        Title:       strings.TrimSpace(r.Title),
        Description: r.Description,
        Duration:    r.Duration,
        ReleaseDate: r.ReleaseDate.Time,
        PosterURL:   r.PosterURL,
        TrailerURL:  r.TrailerURL,
        Genre:       r.Genre,
        Director:    r.Director,
        Cast:        r.Cast,
        IsShowing:   true,
    }
    if r.Rating != nil {
        m.Rating = *r.Rating
    }
    if r.IsShowing != nil {
        m.IsShowing = *r.IsShowing
    }
    for _, st := range r.Showtimes {
        m.Showtimes = append(m.Showtimes, model.MovieShowtime{CinemaID: st.CinemaID, Date: st.Date, Times: st.Times})
    }
    return m
}

func (h *MovieHandler) bindMovie(c echo.Context) (*model.Movie, error) {
    var req movieReq
    if err := c.Bind(&req); err != nil {
        return nil, badBody(err)
    }
    if err := c.Validate(&req); err != nil {
        return nil, err
    }
    return req.toModel(), nil
}

func listResponse[T any](c echo.Context, items []T) error {
    if items == nil {
        items = []T{}
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(items), "data": items})
}

func (h *MovieHandler) List(c echo.Context) error {
    movies, err := h.svc.List(c.Request().Context())
    if err != nil {
        return err
    }
    return listResponse(c, movies)
}

func (h *MovieHandler) Showing(c echo.Context) error {
    movies, err := h.svc.Showing(c.Request().Context())
    if err != nil {
        return err
    }
    return listResponse(c, movies)
}

// Search matches ?q= against title, director and cast.
func (h *MovieHandler) Search(c echo.Context) error {
    movies, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"))
    if err != nil {
        return err
    }
    return listResponse(c, movies)
}

func (h *MovieHandler) Get(c echo.Context) error {
    m, err := h.svc.Get(c.Request().Context(), c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": m})
}

func (h *MovieHandler) Create(c echo.Context) error {
    m, err := h.bindMovie(c)
    if err != nil {
        return err
    }
    created, err := h.svc.Create(c.Request().Context(), m)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": created})
}

func (h *MovieHandler) Update(c echo.Context) error {
    m, err := h.bindMovie(c)
    if err != nil {
        return err
    }
    updated, err := h.svc.Update(c.Request().Context(), c.Param("id"), m)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated})
}

func (h *MovieHandler) Delete(c echo.Context) error {
    if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{}})
}
