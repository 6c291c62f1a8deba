// Package alerts evaluates computed KPI values against the thresholds
// configured per KPI card.
package alerts

import (
	"github.com/callboard/backend/internal/config"
	"github.com/callboard/backend/internal/types"
)

// Evaluate returns the threshold status of one KPI value. Critical bounds
// win over warning bounds when both trip.
func Evaluate(value float64, kpi config.KPIConfig) string {
	if kpi.CritAbove != nil && value > *kpi.CritAbove {
		return types.StatusCritical
	}
	if kpi.CritBelow != nil && value < *kpi.CritBelow {
		return types.StatusCritical
	}
	if kpi.WarnAbove != nil && value > *kpi.WarnAbove {
		return types.StatusWarning
	}
	if kpi.WarnBelow != nil && value < *kpi.WarnBelow {
		return types.StatusWarning
	}
	return types.StatusOK
}

// Annotate merges computed values with the page's configured KPI cards, in
// display order. KPIs the reconciler did not produce are skipped.
func Annotate(page *config.PageConfig, values map[string]float64) []types.KPIValue {
	out := make([]types.KPIValue, 0, len(page.KPIs))
	for _, kpi := range page.KPIs {
		value, ok := values[kpi.Key]
		if !ok {
			continue
		}
		out = append(out, types.KPIValue{
			Key:    kpi.Key,
			Label:  kpi.Label,
			Format: kpi.Format,
			Value:  value,
			Status: Evaluate(value, kpi),
		})
	}
	return out
}
