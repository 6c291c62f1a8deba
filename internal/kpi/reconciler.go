// Package kpi computes per-page scalar KPIs and chart-ready aggregates from
// the loaded source snapshots.
package kpi

import (
	"github.com/callboard/backend/internal/store"
	"github.com/callboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// Reconciler reads one or more source stores under a shared filter and
// produces the KPI values of a dashboard page. Ratios are divide-safe by
// contract: a zero denominator yields 0, never NaN or Inf.
type Reconciler struct {
	stores *store.Stores
	logger zerolog.Logger
}

// New creates a reconciler over the given stores.
func New(stores *store.Stores, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		stores: stores,
		logger: logger.With().Str("component", "kpi").Logger(),
	}
}

// ComputePage computes every KPI of the page under one filter. Unknown pages
// yield an empty map.
func (r *Reconciler) ComputePage(page types.PageKey, f types.FilterCriteria) map[string]float64 {
	switch page {
	case types.PageInbound:
		return r.inboundKPIs(f)
	case types.PageOutbound:
		return r.outboundKPIs(f)
	case types.PageFCR:
		return r.fcrKPIs(f)
	default:
		r.logger.Warn().Str("page", string(page)).Msg("unknown KPI page requested")
		return map[string]float64{}
	}
}

func (r *Reconciler) inboundKPIs(f types.FilterCriteria) map[string]float64 {
	records := r.stores.Query(types.SourceInbound, f)

	total := float64(len(records))
	abandoned := countFlag(records, types.FlagAbandoned)

	return map[string]float64{
		"total_calls":     total,
		"abandoned_calls": abandoned,
		"abandon_rate":    rate(abandoned, total),
		"avg_handle_time": meanMetric(records, types.MetricDurationSecs),
		"avg_wait_time":   meanMetric(records, types.MetricWaitSecs),
	}
}

func (r *Reconciler) outboundKPIs(f types.FilterCriteria) map[string]float64 {
	// Two independent views of outbound activity, correlated only at the
	// aggregate level under the same filter window: the daily-aggregate
	// source carries counts, the per-call source carries durations.
	aggregate := r.stores.Query(types.SourceOutbound, f)
	perCall := r.stores.Query(types.SourceConnectRate, f)

	totalCalls := sumMetric(aggregate, types.MetricCalls)
	dialed := float64(len(perCall))
	connected := countFlag(perCall, types.FlagConnected)

	return map[string]float64{
		"total_calls":     totalCalls,
		"dialed_calls":    dialed,
		"connected_calls": connected,
		"connect_rate":    rate(connected, dialed),
		"avg_talk_time":   safeDiv(sumMetric(aggregate, types.MetricTalkSecs), totalCalls),
	}
}

func (r *Reconciler) fcrKPIs(f types.FilterCriteria) map[string]float64 {
	// The one KPI reading three sources at once. All three reads share the
	// same filter criteria or the ratio is meaningless.
	cases := sumMetric(r.stores.Query(types.SourceFCR, f), types.MetricCases)

	inbound := r.stores.Query(types.SourceInbound, f)
	connectedInbound := float64(len(inbound)) - countFlag(inbound, types.FlagAbandoned)
	connectedOutbound := countFlag(r.stores.Query(types.SourceConnectRate, f), types.FlagConnected)

	return map[string]float64{
		"total_cases":        cases,
		"connected_inbound":  connectedInbound,
		"connected_outbound": connectedOutbound,
		"fcr_rate":           rate(cases, connectedInbound+connectedOutbound),
	}
}

// rate is a divide-safe percentage.
func rate(num, den float64) float64 {
	return safeDiv(num, den) * 100
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func countFlag(records []types.CanonicalRecord, flag string) float64 {
	var n float64
	for i := range records {
		if records[i].Flag(flag) {
			n++
		}
	}
	return n
}

func sumMetric(records []types.CanonicalRecord, metric string) float64 {
	var sum float64
	for i := range records {
		if v, ok := records[i].Metric(metric); ok {
			sum += v
		}
	}
	return sum
}

// meanMetric averages a metric over the records where it is present and
// non-negative. Records missing the field leave the denominator, they are
// not counted as zero.
func meanMetric(records []types.CanonicalRecord, metric string) float64 {
	var sum float64
	var n float64
	for i := range records {
		v, ok := records[i].Metric(metric)
		if !ok || v < 0 {
			continue
		}
		sum += v
		n++
	}
	return safeDiv(sum, n)
}
