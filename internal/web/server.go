package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/btc-treasury/internal/config"
	"github.com/btc-treasury/internal/dedupe"
	"github.com/btc-treasury/internal/scrape"
	"github.com/btc-treasury/internal/web/handlers"
	"github.com/btc-treasury/internal/web/middleware"
)

// Server exposes the treasuries listing and the manual batch triggers
// over HTTP.
type Server struct {
	cfg        *config.Config
	db         *sql.DB
	logger     *logrus.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer builds the server and its routes over an open connection.
func NewServer(cfg *config.Config, db *sql.DB, pipeline *dedupe.Pipeline, scraper *scrape.TreasuryScraper, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
	s.setupRoutes(pipeline, scraper)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(pipeline *dedupe.Pipeline, scraper *scrape.TreasuryScraper) {
	s.router = mux.NewRouter()

	h := &handlers.TreasuriesHandler{
		DB:       s.db,
		Table:    s.cfg.TreasuryTable,
		Scraper:  scraper,
		Pipeline: pipeline,
		Logger:   s.logger,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/treasuries", h.ListTreasuries).Methods("GET")
	api.HandleFunc("/treasuries/scrape", h.TriggerScrape).Methods("POST")
	api.HandleFunc("/treasuries/dedupe", h.TriggerDedupe).Methods("POST")

	s.router.HandleFunc("/health", h.Health).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.logger))
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.logger.Infof("Starting server on http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Server error: %v", err)
		}
	}()

	<-stop
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
