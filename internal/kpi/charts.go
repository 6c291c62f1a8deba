package kpi

import (
	"sort"
	"strings"

	"github.com/callboard/backend/internal/types"
)

// TimeSeries buckets src's filtered records by chart bucket key. An empty
// metric counts rows per bucket; otherwise the metric is summed. Buckets
// sort ascending, so ISO day keys come out in calendar order.
func (r *Reconciler) TimeSeries(src types.SourceType, f types.FilterCriteria, metric string) []types.TimeSeriesPoint {
	records := r.stores.Query(src, f)

	byBucket := make(map[string]float64)
	for i := range records {
		key := records[i].ChartBucketKey
		if key == "" {
			continue
		}
		if metric == "" {
			byBucket[key]++
			continue
		}
		if v, ok := records[i].Metric(metric); ok {
			byBucket[key] += v
		}
	}

	points := make([]types.TimeSeriesPoint, 0, len(byBucket))
	for key, value := range byBucket {
		points = append(points, types.TimeSeriesPoint{BucketKey: key, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].BucketKey < points[j].BucketKey })
	return points
}

// FieldBreakdown counts filtered records per distinct value of a logical
// field (status doughnut, per-agent bar). Labels sort by descending count,
// ties alphabetically, so charts render stable.
func (r *Reconciler) FieldBreakdown(src types.SourceType, f types.FilterCriteria, logical, title string) types.ChartData {
	records := r.stores.Query(src, f)
	roles := r.stores.Roles(src)

	header, ok := roles[logical]
	if !ok {
		return types.ChartData{Title: title, Labels: []string{}, Series: []float64{}}
	}
	header = strings.TrimSpace(header)

	counts := make(map[string]float64)
	for i := range records {
		value := strings.TrimSpace(records[i].Fields[header])
		if value == "" {
			value = "(blank)"
		}
		counts[value]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	series := make([]float64, len(labels))
	for i, label := range labels {
		series[i] = counts[label]
	}
	return types.ChartData{Title: title, Labels: labels, Series: series}
}
