package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/callboard/backend/internal/config"
	"github.com/callboard/backend/internal/kpi"
	"github.com/callboard/backend/internal/store"
	"github.com/callboard/backend/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type fakeRefresher struct {
	triggered int
}

func (f *fakeRefresher) TriggerRefresh() { f.triggered++ }

func testHandler(t *testing.T) (*DashboardHandler, *store.Stores, *fakeRefresher) {
	t.Helper()
	logger := zerolog.New(&bytes.Buffer{})

	m, err := config.LoadMapping("")
	if err != nil {
		t.Fatalf("failed to load mapping: %v", err)
	}
	cfg := &config.Config{MaxFilterSpanDays: 366}

	stores := store.New(logger)
	refresher := &fakeRefresher{}
	h := NewDashboardHandler(stores, kpi.New(stores, logger), m, cfg, refresher, logger)
	return h, stores, refresher
}

func testRouter(h *DashboardHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func loadInbound(stores *store.Stores) {
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	records := []types.CanonicalRecord{
		{
			Fields:         map[string]string{"Call ID": "c-1", "Agent": "Mara", "Status": "Answered"},
			ParsedDate:     &d,
			ChartBucketKey: "2024-01-15",
			Metrics:        map[string]float64{types.MetricDurationSecs: 240},
			Flags:          map[string]bool{},
		},
		{
			Fields:         map[string]string{"Call ID": "c-2", "Agent": "Jonas", "Status": "Abandoned"},
			ParsedDate:     &d,
			ChartBucketKey: "2024-01-15",
			Metrics:        map[string]float64{},
			Flags:          map[string]bool{types.FlagAbandoned: true},
		},
	}
	roles := map[string]string{
		types.FieldAgent:  "Agent",
		types.FieldStatus: "Status",
	}
	stores.Load(types.SourceInbound, records, roles, types.SourceMeta{
		Columns: []string{"Call ID", "Agent", "Status"},
	})
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetSources(t *testing.T) {
	h, stores, _ := testHandler(t)
	loadInbound(stores)

	rec := get(t, testRouter(h), "/api/sources")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var metas []types.SourceMeta
	if err := json.Unmarshal(rec.Body.Bytes(), &metas); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(metas) != len(types.AllSources) {
		t.Errorf("expected %d sources, got %d", len(types.AllSources), len(metas))
	}
}

func TestGetRecordsFiltered(t *testing.T) {
	h, stores, _ := testHandler(t)
	loadInbound(stores)

	rec := get(t, testRouter(h), "/api/sources/inbound/records?agent=mara")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Count   int                     `json:"count"`
		NoData  bool                    `json:"noData"`
		Records []types.CanonicalRecord `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Count != 1 || resp.NoData {
		t.Errorf("expected 1 record, got count=%d noData=%v", resp.Count, resp.NoData)
	}
}

func TestGetRecordsUnknownSource(t *testing.T) {
	h, _, _ := testHandler(t)
	if rec := get(t, testRouter(h), "/api/sources/bogus/records"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFilterValidation(t *testing.T) {
	h, stores, _ := testHandler(t)
	loadInbound(stores)
	router := testRouter(h)

	tests := []struct {
		name string
		path string
	}{
		{"malformed start", "/api/sources/inbound/records?start=15.01.2024"},
		{"inverted range", "/api/sources/inbound/records?start=2024-02-01&end=2024-01-01"},
		{"span too large", "/api/sources/inbound/records?start=2020-01-01&end=2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := get(t, router, tt.path); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	// End date is inclusive of its whole day.
	rec := get(t, router, "/api/sources/inbound/records?start=2024-01-15&end=2024-01-15")
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("single-day range returned %d records, want 2", resp.Count)
	}
}

func TestGetKPIs(t *testing.T) {
	h, stores, _ := testHandler(t)
	loadInbound(stores)

	rec := get(t, testRouter(h), "/api/pages/inbound/kpis")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		NoData bool             `json:"noData"`
		KPIs   []types.KPIValue `json:"kpis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.NoData {
		t.Error("expected data")
	}

	byKey := make(map[string]types.KPIValue)
	for _, k := range resp.KPIs {
		byKey[k.Key] = k
	}
	if byKey["total_calls"].Value != 2 {
		t.Errorf("total_calls = %v, want 2", byKey["total_calls"].Value)
	}
	if byKey["abandon_rate"].Value != 50 {
		t.Errorf("abandon_rate = %v, want 50", byKey["abandon_rate"].Value)
	}
	// 50% abandon rate is past the configured critical bound.
	if byKey["abandon_rate"].Status != types.StatusCritical {
		t.Errorf("abandon_rate status = %q, want critical", byKey["abandon_rate"].Status)
	}
}

func TestGetKPIsUnknownPage(t *testing.T) {
	h, _, _ := testHandler(t)
	if rec := get(t, testRouter(h), "/api/pages/bogus/kpis"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetKPIsNoData(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := get(t, testRouter(h), "/api/pages/inbound/kpis")
	var resp struct {
		NoData bool `json:"noData"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !resp.NoData {
		t.Error("empty stores should report noData")
	}
}

func TestGetCharts(t *testing.T) {
	h, stores, _ := testHandler(t)
	loadInbound(stores)

	rec := get(t, testRouter(h), "/api/pages/inbound/charts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		TimeSeries []types.TimeSeriesPoint `json:"timeSeries"`
		Breakdown  types.ChartData         `json:"breakdown"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.TimeSeries) != 1 || resp.TimeSeries[0].Value != 2 {
		t.Errorf("unexpected time series: %v", resp.TimeSeries)
	}
	if len(resp.Breakdown.Labels) != 2 {
		t.Errorf("unexpected breakdown: %v", resp.Breakdown)
	}
}

func TestExport(t *testing.T) {
	h, stores, _ := testHandler(t)
	loadInbound(stores)

	rec := get(t, testRouter(h), "/api/sources/inbound/export?agent=mara")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 filtered row, got %d lines", len(lines))
	}
	if lines[0] != "Call ID,Agent,Status" {
		t.Errorf("unexpected header line %q", lines[0])
	}
	if !strings.Contains(lines[1], "Mara") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestExportNoDataLoaded(t *testing.T) {
	h, _, _ := testHandler(t)
	if rec := get(t, testRouter(h), "/api/sources/inbound/export"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	h, _, refresher := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if refresher.triggered != 1 {
		t.Errorf("refresher triggered %d times, want 1", refresher.triggered)
	}
}
