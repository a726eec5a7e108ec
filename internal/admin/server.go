// Package admin serves the cache inspection API.
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/iTrooz/proximate/internal/cache/pool"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Page size limits for listing endpoints
const (
	DefaultPerPage = 20
	MaxPerPage     = 500
)

// Server exposes an adapter over HTTP
type Server struct {
	adapter cache.Adapter
	mux     *http.ServeMux
}

// New creates the admin API for adapter
func New(adapter cache.Adapter) *Server {
	s := &Server{
		adapter: adapter,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /cache/count", s.handleCount)
	s.mux.HandleFunc("GET /cache/keys", s.handleKeys)
	s.mux.HandleFunc("GET /cache/items", s.handleItems)
	s.mux.HandleFunc("GET /cache/items/{key}", s.handleReadItem)
	s.mux.HandleFunc("DELETE /cache/items/{key}", s.handleExpireItem)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start serves the admin API on port
func (s *Server) Start(port int) error {
	logrus.Infof("Starting cache admin API on port %d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.adapter.CountCacheItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	keys, err := s.adapter.PageOfCacheKeys(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":     page,
		"per_page": perPage,
		"keys":     keys,
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	includeResponse := false
	if raw := r.URL.Query().Get("include_response"); raw != "" {
		includeResponse, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, &cache.ValidationError{Field: "include_response", Reason: "must be a boolean"})
			return
		}
	}

	items, err := s.adapter.PageOfCacheItems(r.Context(), page, perPage, includeResponse)
	if err != nil {
		writeError(w, err)
		return
	}
	var listed any = items
	if !includeResponse {
		summaries := make([]itemSummary, 0, len(items))
		for _, item := range items {
			summaries = append(summaries, itemSummary{URL: item.URL, Method: item.Method, Key: item.Key})
		}
		listed = summaries
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":     page,
		"per_page": perPage,
		"items":    listed,
	})
}

// itemSummary is a listed entry without its response
type itemSummary struct {
	URL    string `json:"url"`
	Method string `json:"method"`
	Key    string `json:"key"`
}

func (s *Server) handleReadItem(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	entry, err := s.adapter.ReadCacheItem(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if entry == nil {
		http.Error(w, fmt.Sprintf("no cache item for key %s", key), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleExpireItem(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.adapter.ExpireCacheItem(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	logrus.Infof("Expired cache item %s", key)
	w.WriteHeader(http.StatusNoContent)
}

// pageParams reads page and per_page, defaulting to the first page.
// per_page is clamped to MaxPerPage.
func pageParams(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	page := 1
	if raw := query.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, &cache.ValidationError{Field: "page", Reason: "must be a positive integer"}
		}
		page = v
	}

	perPage := DefaultPerPage
	if raw := query.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, &cache.ValidationError{Field: "per_page", Reason: "must be a positive integer"}
		}
		perPage = min(v, MaxPerPage)
	}

	return page, perPage, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write admin response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cache.ErrValidation), errors.Is(err, pool.ErrInvalidKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, cache.ErrNotInitialized):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logrus.Errorf("Cache admin request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
