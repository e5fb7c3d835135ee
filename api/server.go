package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"flaticonapi/flaticon"
	"flaticonapi/storage"

	"go.uber.org/zap"
)

// Searcher is the part of flaticon.Client the API depends on.
type Searcher interface {
	Search(ctx context.Context, query string, opts flaticon.SearchOptions) ([]flaticon.Icon, error)
	SearchURL(query string, f flaticon.Filters) string
}

// Server represents the API server
type Server struct {
	searcher Searcher
	history  storage.HistoryRepository
	logger   *zap.Logger
	srv      *http.Server
}

// NewServer creates a new API server. history may be nil.
func NewServer(port int, searcher Searcher, history storage.HistoryRepository, logger *zap.Logger) *Server {
	s := &Server{
		searcher: searcher,
		history:  history,
		logger:   logger,
	}
	s.srv = &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API with request IDs attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /search", s.SearchHandler)
	mux.HandleFunc("GET /history", s.HistoryHandler)

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return s.withRequestID(mux)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
