package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"flaticonapi/flaticon"
	"flaticonapi/storage"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 20

type errorResponse struct {
	Error string `json:"error"`
}

// SearchHandler serves GET /search?q=&shape=&order_by=&craft=&count=.
// An empty result is reported as 404 so clients can tell it apart from
// an empty list.
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	logger := GetContextLogger(r.Context(), s.logger)
	params := r.URL.Query()

	query := strings.TrimSpace(params.Get("q"))
	if query == "" {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{"missing q parameter"})
		return
	}

	opts, err := parseSearchOptions(params)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}

	icons, err := s.searcher.Search(r.Context(), query, opts)
	if err != nil {
		logger.Error("search failed", zap.String("query", query), zap.Error(err))
		writeJSON(w, r, http.StatusBadGateway, errorResponse{fmt.Sprintf("search failed: %v", err)})
		return
	}

	logger.Info("search",
		zap.String("query", query),
		zap.String("shape", string(opts.Shape)),
		zap.Stringer("order_by", opts.OrderBy),
		zap.Bool("craft", opts.Craft),
		zap.Int("results", len(icons)))
	s.record(r, logger, query, opts, len(icons))

	if icons == nil {
		writeJSON(w, r, http.StatusNotFound, errorResponse{"no results"})
		return
	}
	writeJSON(w, r, http.StatusOK, icons)
}

// HistoryHandler serves GET /history?limit=.
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, r, http.StatusNotFound, errorResponse{"history is disabled"})
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{"limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		GetContextLogger(r.Context(), s.logger).Error("failed to read history", zap.Error(err))
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{"failed to read history"})
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

func (s *Server) record(r *http.Request, logger *zap.Logger, query string, opts flaticon.SearchOptions, results int) {
	if s.history == nil {
		return
	}
	count := opts.Count
	if count == 0 {
		count = flaticon.DefaultCount
	}
	err := s.history.Record(r.Context(), &storage.Entry{
		ID:      GetRequestID(r.Context()),
		Query:   query,
		URL:     s.searcher.SearchURL(query, opts.Filters),
		Shape:   string(opts.Shape),
		OrderBy: int(opts.OrderBy),
		Craft:   opts.Craft,
		Count:   count,
		Results: results,
	})
	if err != nil {
		logger.Warn("failed to record search", zap.Error(err))
	}
}

func parseSearchOptions(params url.Values) (flaticon.SearchOptions, error) {
	get := params.Get

	var opts flaticon.SearchOptions
	var err error

	if opts.Shape, err = flaticon.ParseShape(get("shape")); err != nil {
		return opts, err
	}
	if opts.OrderBy, err = flaticon.ParseOrderBy(get("order_by")); err != nil {
		return opts, err
	}
	if v := get("craft"); v != "" {
		if opts.Craft, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("invalid craft %q", v)
		}
	}
	if v := get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("count must be a positive integer")
		}
		opts.Count = n
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()

	w.WriteHeader(status)
	json.NewEncoder(body).Encode(v)
}
