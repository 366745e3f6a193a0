package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elonfeng/dealradar/internal/store"
	"github.com/elonfeng/dealradar/pkg/curate"
	"github.com/elonfeng/dealradar/pkg/deal"
	"github.com/elonfeng/dealradar/pkg/legit"
	"github.com/elonfeng/dealradar/pkg/pipeline"
)

// Runner triggers a pipeline run on demand.
type Runner interface {
	RunOnce(ctx context.Context) (*pipeline.Result, error)
}

// Server provides the HTTP API.
type Server struct {
	store      store.Store
	runner     Runner
	builder    *curate.Builder
	inferencer *legit.Inferencer
	port       int
}

// New creates a new HTTP server.
func New(s store.Store, runner Runner, builder *curate.Builder, inferencer *legit.Inferencer, port int) *Server {
	if port == 0 {
		port = 8080
	}
	if builder == nil {
		builder = curate.NewBuilder(curate.DefaultRules())
	}
	return &Server{
		store:      s,
		runner:     runner,
		builder:    builder,
		inferencer: inferencer,
		port:       port,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/deals", s.handleDeals)
	mux.HandleFunc("/api/v1/collections", s.handleCollections)
	mux.HandleFunc("/api/v1/legitimacy", s.handleLegitimacy)
	mux.HandleFunc("/api/v1/history/stats", s.handleHistoryStats)
	mux.HandleFunc("/api/v1/scrape", s.handleScrape)

	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("dealradar server listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeals serves the latest result payload: deals, categories, and
// category stats as of the last completed run.
func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	result, err := s.store.LatestResult(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if result == nil {
		result = &pipeline.Result{
			Deals:         []deal.Deal{},
			Categories:    map[string][]string{},
			CategoryStats: map[string]curate.CategoryStats{},
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCollections builds the smart collections on demand from the latest
// payload. They are deliberately not part of the stored result.
func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	result, err := s.store.LatestResult(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var deals []deal.Deal
	var lastUpdated time.Time
	if result != nil {
		deals = result.Deals
		lastUpdated = result.LastUpdated
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"last_updated": lastUpdated,
		"collections":  s.builder.BuildAll(deals),
	})
}

// handleLegitimacy judges one deal against stored price history. Query
// params: url, retailer, price, original_price.
func (s *Server) handleLegitimacy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.inferencer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "legitimacy inference not configured"})
		return
	}

	q := r.URL.Query()
	url := q.Get("url")
	if url == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url parameter required"})
		return
	}

	price, _ := strconv.ParseFloat(q.Get("price"), 64)
	original, _ := strconv.ParseFloat(q.Get("original_price"), 64)

	d := deal.Deal{
		URL:           url,
		Retailer:      q.Get("retailer"),
		Price:         price,
		OriginalPrice: original,
	}

	verdict, err := s.inferencer.Infer(r.Context(), d)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	stats, err := s.store.HistoryStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleScrape triggers a full pipeline run and returns a per-source summary.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "pipeline not configured"})
		return
	}

	result, err := s.runner.RunOnce(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	counts := make(map[string]int)
	for _, d := range result.Deals {
		counts[d.Retailer]++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"last_updated": result.LastUpdated,
		"deals":        len(result.Deals),
		"by_retailer":  counts,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
