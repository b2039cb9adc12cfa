package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hdfuturetech/cinema-booking/internal/config"
	"github.com/hdfuturetech/cinema-booking/internal/database"
	"github.com/hdfuturetech/cinema-booking/internal/handler"
	"github.com/hdfuturetech/cinema-booking/internal/logger"
	"github.com/hdfuturetech/cinema-booking/internal/middleware"
	"github.com/hdfuturetech/cinema-booking/internal/queue"
	"github.com/hdfuturetech/cinema-booking/internal/repository"
	"github.com/hdfuturetech/cinema-booking/internal/router"
	"github.com/hdfuturetech/cinema-booking/internal/service"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		zl.Fatal("schema bootstrap failed", zap.Error(err))
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		zl.Warn("redis unavailable, cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	// Booking events are optional; without a broker they are simply not sent.
	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL, zl.Named("publisher"))
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.BookingLogPath, zl.Named("booking-consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("booking consumer stopped", zap.Error(err))
			}
		}()
	} else {
		zl.Info("AMQP_URL not set, booking events disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cinemas := repository.NewCinemaRepo(db)
	movies := repository.NewMovieRepo(db)
	bookings := repository.NewBookingRepo(db)

	resolver := service.NewCinemaResolver(cinemas, cfg.AutoProvisionCinemas, zl.Named("cinemas"))
	bookingSvc := service.NewBookingService(bookings, movies, cinemas, resolver, events, zl.Named("bookings"))
	movieSvc := service.NewMovieService(movies, zl.Named("movies"))
	cinemaSvc := service.NewCinemaService(cinemas, resolver, zl.Named("cinemas"))

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(zl)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(zl.Named("http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, zl.Named("auth")), cfg.JWTSecret)
	router.RegisterBookings(e, handler.NewBookingHandler(bookingSvc), cfg.JWTSecret,
		middleware.NewTokenBucket(rlCfg, rdb, zl.Named("ratelimit")))
	router.RegisterCatalog(e, router.Catalog{
		Movies:     handler.NewMovieHandler(movieSvc),
		Cinemas:    handler.NewCinemaHandler(cinemaSvc),
		Cache:      middleware.NewRedisCache(cacheCfg, rdb, zl.Named("cache")),
		Invalidate: middleware.NewCacheInvalidator(cacheCfg, rdb, zl.Named("cache")),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
