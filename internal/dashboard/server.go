// Package dashboard serves a read-only HTTP view of the portfolios. It never
// mutates positions; all writes stay on the queue consumer.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/portfolio"
)

type Server struct {
	router   *chi.Mux
	server   *http.Server
	managers []*portfolio.Manager
	logger   *logrus.Logger
	port     int
}

type Config struct {
	Port int
}

// Statistics summarizes one portfolio for the stats endpoint.
type Statistics struct {
	Portfolio     string  `json:"portfolio"`
	OpenPositions int     `json:"openPositions"`
	ClosedTrades  int     `json:"closedTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	RealizedPnL   float64 `json:"realizedPnl"`
	Commission    float64 `json:"commission"`
}

func NewServer(cfg Config, managers []*portfolio.Manager, logger *logrus.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		managers: managers,
		logger:   logger,
		port:     cfg.Port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/portfolios", s.handleGetPortfolios)
	s.router.Get("/api/positions", s.handleGetPositions)
	s.router.Get("/api/positions/{portfolio}", s.handleGetPortfolioPositions)
	s.router.Get("/api/stats", s.handleGetStats)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	s.writeJSON(w, health)
}

func (s *Server) handleGetPortfolios(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.managers))
	for _, m := range s.managers {
		names = append(names, m.Name())
	}
	s.writeJSON(w, names)
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]models.Position, len(s.managers))
	for _, m := range s.managers {
		positions, err := m.Positions().AllPositions()
		if err != nil {
			s.logger.WithError(err).Errorf("Failed to read positions for %s", m.Name())
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		out[m.Name()] = positions
	}
	s.writeJSON(w, out)
}

func (s *Server) handleGetPortfolioPositions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "portfolio")
	m := s.findManager(name)
	if m == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	positions, err := m.Positions().AllPositions()
	if err != nil {
		s.logger.WithError(err).Errorf("Failed to read positions for %s", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, positions)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := make([]Statistics, 0, len(s.managers))
	for _, m := range s.managers {
		st, err := s.calculateStatistics(m)
		if err != nil {
			s.logger.WithError(err).Errorf("Failed to calculate statistics for %s", m.Name())
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		stats = append(stats, *st)
	}
	s.writeJSON(w, stats)
}

func (s *Server) calculateStatistics(m *portfolio.Manager) (*Statistics, error) {
	positions, err := m.Positions().AllPositions()
	if err != nil {
		return nil, err
	}

	stats := &Statistics{Portfolio: m.Name()}
	for _, pos := range positions {
		stats.Commission += pos.Commission
		stats.RealizedPnL += pos.RealizedPnL
		if pos.IsOpen() {
			stats.OpenPositions++
			stats.UnrealizedPnL += pos.UnrealizedPnL
			continue
		}
		stats.ClosedTrades++
		if pos.RealizedPnL > 0 {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
	}

	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.ClosedTrades) * 100
	}
	return stats, nil
}

func (s *Server) findManager(name string) *portfolio.Manager {
	for _, m := range s.managers {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
