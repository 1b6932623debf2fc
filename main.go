package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"raceday/config"
	"raceday/db"
	"raceday/handlers"
	applog "raceday/logger"
	mw "raceday/middleware"
	"raceday/models"
	"raceday/ranking"
	"raceday/workers"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	engine := ranking.NewEngine(bdb, logger)
	h := handlers.New(bdb, engine, cfg.JWTKey())

	closer, err := workers.NewRegistrationCloser(bdb, logger, cfg.RegistrationCloseCron)
	if err != nil {
		logger.Fatal("registration close worker", zap.Error(err))
	}
	closer.Start()
	defer closer.Stop()

	e := echo.New()
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	// Public
	e.POST("/api/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	api := e.Group("/api", mw.JWT(cfg.JWTKey()))

	api.GET("/events", h.ListEvents)
	api.GET("/events/:id", h.GetEvent)
	api.GET("/events/:id/categories", h.ListCategories)
	api.POST("/register", h.Register)
	api.GET("/participants/:id/qr", h.ParticipantQR)
	api.GET("/rankings", h.Rankings)

	admin := api.Group("", mw.RequireRole(models.RoleAdmin))
	admin.POST("/events", h.CreateEvent)
	admin.POST("/events/:id/categories", h.CreateCategory)
	admin.PUT("/participants/:id/status", h.UpdateParticipantStatus)
	admin.PUT("/participants/:id/payment", h.UpdateParticipantPayment)
	admin.PUT("/users/:id/role", h.UpdateUserRole)

	staff := api.Group("", mw.RequireRole(models.RoleAdmin, models.RoleMarshal))
	staff.GET("/participants", h.ListParticipants)
	staff.POST("/checkin", h.Checkin)
	staff.POST("/results", h.RecordFinish)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
