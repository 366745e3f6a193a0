package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/dealradar/internal/store"
	"github.com/elonfeng/dealradar/pkg/deal"
	"github.com/elonfeng/dealradar/pkg/legit"
	"github.com/elonfeng/dealradar/pkg/pipeline"
)

type fakeRunner struct {
	result *pipeline.Result
	err    error
}

func (f *fakeRunner) RunOnce(ctx context.Context) (*pipeline.Result, error) {
	return f.result, f.err
}

func newTestServer(t *testing.T, runner Runner) (*Server, *store.SQLiteStore) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, runner, nil, legit.NewInferencer(s), 0), s
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	srv.handleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHandleDealsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	srv.handleDeals(rr, httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Empty(t, res.Deals)
}

func TestHandleDealsServesLatest(t *testing.T) {
	srv, st := newTestServer(t, nil)

	saved := &pipeline.Result{
		LastUpdated: time.Now().UTC(),
		Deals: []deal.Deal{
			{ID: "amazonau-abc123def456", Title: "Headphones", Scores: &deal.ScoreSet{Total: 74.6}},
		},
	}
	require.NoError(t, st.SaveResult(context.Background(), saved))

	rr := httptest.NewRecorder()
	srv.handleDeals(rr, httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Len(t, res.Deals, 1)
	assert.Equal(t, "Headphones", res.Deals[0].Title)
}

func TestHandleCollections(t *testing.T) {
	srv, st := newTestServer(t, nil)

	saved := &pipeline.Result{
		LastUpdated: time.Now().UTC(),
		Deals: []deal.Deal{
			{ID: "d1", Rating: 4.5, Scores: &deal.ScoreSet{Total: 85, Legitimacy: 60}},
			{ID: "d2", Rating: 4.0, Scores: &deal.ScoreSet{Total: 55, Legitimacy: 60}},
		},
	}
	require.NoError(t, st.SaveResult(context.Background(), saved))

	rr := httptest.NewRecorder()
	srv.handleCollections(rr, httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Collections map[string][]string `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"d1"}, body.Collections["best_overall"])
	assert.Contains(t, body.Collections, "premium_picks")
}

func TestHandleLegitimacyRequiresURL(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	srv.handleLegitimacy(rr, httptest.NewRequest(http.MethodGet, "/api/v1/legitimacy", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleLegitimacy(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/legitimacy?url=https://shop.example/deals&retailer=Amazon+AU&price=79&original_price=159", nil)
	rr := httptest.NewRecorder()
	srv.handleLegitimacy(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var verdict legit.Verdict
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &verdict))
	assert.True(t, verdict.Legitimate)
	assert.Equal(t, legit.ConfidenceUnknown, verdict.Confidence)
}

func TestHandleScrape(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.Result{
		LastUpdated: time.Now().UTC(),
		Deals: []deal.Deal{
			{ID: "a", Retailer: "Amazon AU"},
			{ID: "b", Retailer: "Amazon AU"},
			{ID: "c", Retailer: "OzBargain"},
		},
	}}
	srv, _ := newTestServer(t, runner)

	rr := httptest.NewRecorder()
	srv.handleScrape(rr, httptest.NewRequest(http.MethodPost, "/api/v1/scrape", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Deals      int            `json:"deals"`
		ByRetailer map[string]int `json:"by_retailer"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Deals)
	assert.Equal(t, 2, body.ByRetailer["Amazon AU"])
	assert.Equal(t, 1, body.ByRetailer["OzBargain"])
}

func TestHandleScrapeMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{})

	rr := httptest.NewRecorder()
	srv.handleScrape(rr, httptest.NewRequest(http.MethodGet, "/api/v1/scrape", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleScrapeRunnerError(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{err: errors.New("pipeline exploded")})

	rr := httptest.NewRecorder()
	srv.handleScrape(rr, httptest.NewRequest(http.MethodPost, "/api/v1/scrape", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
