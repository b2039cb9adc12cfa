package router

import (
	"github.com/labstack/echo/v4"

	"github.com/hdfuturetech/cinema-booking/internal/handler"
	"github.com/hdfuturetech/cinema-booking/internal/middleware"
	"github.com/hdfuturetech/cinema-booking/internal/model"
)

// Catalog groups the movie and cinema handlers with the cache middleware
// in front of them.  Cache serves the public reads; Invalidate runs on
// every admin write so cached reads never outlive a change.
type Catalog struct {
	Movies     *handler.MovieHandler
	Cinemas    *handler.CinemaHandler
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

// RegisterCatalog registers /api/movies and /api/cinemas.
func RegisterCatalog(e *echo.Echo, c Catalog, jwtSecret string) {
	admin := []echo.MiddlewareFunc{
		middleware.Protect(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		c.Invalidate,
	}

	m := e.Group("/api/movies")
	m.GET("", c.Movies.List, c.Cache)
	m.GET("/showing", c.Movies.Showing, c.Cache)
	m.GET("/search", c.Movies.Search, c.Cache)
	m.GET("/:id", c.Movies.Get, c.Cache)
	m.POST("", c.Movies.Create, admin...)
	m.PUT("/:id", c.Movies.Update, admin...)
	m.DELETE("/:id", c.Movies.Delete, admin...)

	cn := e.Group("/api/cinemas")
	cn.GET("", c.Cinemas.List, c.Cache)
	cn.GET("/city/:city", c.Cinemas.ByCity, c.Cache)
	cn.GET("/:id", c.Cinemas.Get, c.Cache)
	cn.POST("", c.Cinemas.Create, admin...)
	cn.POST("/ensure", c.Cinemas.Ensure, admin...)
	cn.PUT("/:id", c.Cinemas.Update, admin...)
	cn.DELETE("/:id", c.Cinemas.Delete, admin...)
}
