// Package api exposes the dashboard's REST surface: source metadata,
// filtered records, KPI pages, chart payloads and CSV export.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/callboard/backend/internal/alerts"
	"github.com/callboard/backend/internal/config"
	"github.com/callboard/backend/internal/csvio"
	"github.com/callboard/backend/internal/kpi"
	"github.com/callboard/backend/internal/store"
	"github.com/callboard/backend/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Refresher schedules a data reload; rapid calls coalesce.
type Refresher interface {
	TriggerRefresh()
}

// DashboardHandler serves the dashboard REST endpoints.
type DashboardHandler struct {
	stores     *store.Stores
	reconciler *kpi.Reconciler
	mapping    *config.Mapping
	cfg        *config.Config
	refresher  Refresher
	logger     zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(stores *store.Stores, reconciler *kpi.Reconciler, m *config.Mapping, cfg *config.Config, refresher Refresher, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		stores:     stores,
		reconciler: reconciler,
		mapping:    m,
		cfg:        cfg,
		refresher:  refresher,
		logger:     logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Routes mounts every dashboard endpoint on r.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get("/sources", h.GetSources)
	r.Get("/sources/{source}/records", h.GetRecords)
	r.Get("/sources/{source}/export", h.ExportRecords)
	r.Get("/pages/{page}/kpis", h.GetKPIs)
	r.Get("/pages/{page}/charts", h.GetCharts)
	r.Post("/refresh", h.Refresh)
}

// GetSources returns snapshot metadata for every source.
// GET /api/sources
func (h *DashboardHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.stores.Meta())
}

// GetRecords returns the filtered records of one source.
// GET /api/sources/{source}/records?start=&end=&agent=&status=
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	f, ok := h.filterParams(w, r)
	if !ok {
		return
	}

	records := h.stores.Query(src, f)
	writeJSON(w, map[string]any{
		"source":  src,
		"count":   len(records),
		"noData":  len(records) == 0,
		"records": records,
	})
}

// ExportRecords streams the currently-filtered records of one source as CSV.
// GET /api/sources/{source}/export
func (h *DashboardHandler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	src, ok := h.sourceParam(w, r)
	if !ok {
		return
	}
	f, ok := h.filterParams(w, r)
	if !ok {
		return
	}

	records := h.stores.Query(src, f)
	columns := h.stores.Columns(src)
	if len(columns) == 0 {
		http.Error(w, "no data loaded for this source", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(src)+".csv"))
	if err := csvio.Write(w, columns, records); err != nil {
		h.logger.Error().Err(err).Str("source", string(src)).Msg("export failed")
	}
}

// GetKPIs returns one page's KPI cards with threshold status.
// GET /api/pages/{page}/kpis
func (h *DashboardHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	pageKey := chi.URLParam(r, "page")
	page := h.mapping.Page(pageKey)
	if page == nil {
		http.Error(w, "unknown page", http.StatusNotFound)
		return
	}
	f, ok := h.filterParams(w, r)
	if !ok {
		return
	}

	values := h.reconciler.ComputePage(types.PageKey(pageKey), f)
	writeJSON(w, map[string]any{
		"page":   pageKey,
		"noData": !h.pageHasData(types.PageKey(pageKey), f),
		"kpis":   alerts.Annotate(page, values),
	})
}

// GetCharts returns one page's chart-ready aggregates.
// GET /api/pages/{page}/charts
func (h *DashboardHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	pageKey := types.PageKey(chi.URLParam(r, "page"))
	f, ok := h.filterParams(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	switch pageKey {
	case types.PageInbound:
		payload = map[string]any{
			"timeSeries": h.reconciler.TimeSeries(types.SourceInbound, f, ""),
			"breakdown":  h.reconciler.FieldBreakdown(types.SourceInbound, f, types.FieldStatus, "Status Breakdown"),
		}
	case types.PageOutbound:
		payload = map[string]any{
			"timeSeries": h.reconciler.TimeSeries(types.SourceOutbound, f, types.MetricCalls),
			"breakdown":  h.reconciler.FieldBreakdown(types.SourceConnectRate, f, types.FieldAgent, "Calls by Agent"),
		}
	case types.PageFCR:
		payload = map[string]any{
			"timeSeries": h.reconciler.TimeSeries(types.SourceFCR, f, types.MetricCases),
		}
	default:
		http.Error(w, "unknown page", http.StatusNotFound)
		return
	}

	payload["page"] = pageKey
	payload["noData"] = !h.pageHasData(pageKey, f)
	writeJSON(w, payload)
}

// Refresh schedules a debounced full reload of all sources.
// POST /api/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.refresher.TriggerRefresh()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprint(w, `{"status":"refresh scheduled"}`)
}

// pageSources lists the stores each page reads.
var pageSources = map[types.PageKey][]types.SourceType{
	types.PageInbound:  {types.SourceInbound},
	types.PageOutbound: {types.SourceOutbound, types.SourceConnectRate},
	types.PageFCR:      {types.SourceFCR, types.SourceInbound, types.SourceConnectRate},
}

func (h *DashboardHandler) pageHasData(page types.PageKey, f types.FilterCriteria) bool {
	for _, src := range pageSources[page] {
		if len(h.stores.Query(src, f)) > 0 {
			return true
		}
	}
	return false
}

func (h *DashboardHandler) sourceParam(w http.ResponseWriter, r *http.Request) (types.SourceType, bool) {
	src := types.SourceType(chi.URLParam(r, "source"))
	if !src.Known() {
		http.Error(w, "unknown source", http.StatusNotFound)
		return "", false
	}
	return src, true
}

func (h *DashboardHandler) filterParams(w http.ResponseWriter, r *http.Request) (types.FilterCriteria, bool) {
	f, err := parseFilters(r.URL.Query(), h.cfg.MaxFilterSpanDays)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return types.FilterCriteria{}, false
	}
	return f, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
