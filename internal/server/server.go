// Package server assembles the HTTP surface from configuration.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"streamscout/api"
	"streamscout/config"
	"streamscout/handlers"
	"streamscout/services/metadata"
	"streamscout/utils"
)

const (
	ServiceName     = "Streamscout API"
	shutdownTimeout = 10 * time.Second
)

var logger = logrus.WithField("component", "server")

type Server struct {
	cfg      config.Config
	handler  http.Handler
	limiters []*api.IPRateLimiter
}

// New wires the router, rate limiters and handlers around svc.
func New(cfg config.Config, svc *metadata.Service, version string) *Server {
	general := api.NewWindowLimiter(cfg.RateLimitMax, cfg.RateLimitWindow,
		"Too many requests from this IP, please try again later.")
	search := api.NewWindowLimiter(cfg.SearchLimitMax, cfg.RateLimitWindow,
		"Too many search requests, please try again later.")

	r := utils.NewRouter(utils.RouterOptions{
		AllowedOrigins:      []string{cfg.FrontendURL},
		AllowPrivateOrigins: !cfg.IsProduction(),
		ServiceName:         ServiceName,
	})
	r.HandleFunc("/", handlers.NewIndexHandler(ServiceName, version).Index).Methods(http.MethodGet, http.MethodOptions)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(general.Middleware())
	handlers.NewContentHandler(svc).Register(apiRouter, search.Middleware())

	return &Server{
		cfg:      cfg,
		handler:  r,
		limiters: []*api.IPRateLimiter{general, search},
	}
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.HTTPTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"environment": s.cfg.Environment,
		}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the limiter cleanup goroutines.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Stop()
	}
}
