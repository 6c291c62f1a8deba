package types

import "time"

// PageKey identifies one dashboard page with its own KPI set.
type PageKey string

const (
	PageInbound  PageKey = "inbound"
	PageOutbound PageKey = "outbound"
	PageFCR      PageKey = "fcr"
)

// KPI value format hints consumed by the rendering layer.
const (
	FormatNumber     = "number"
	FormatPercentage = "percentage"
	FormatDuration   = "duration"
)

// KPI threshold status as evaluated against configured thresholds.
const (
	StatusOK       = "ok"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// KPIValue is one computed scalar plus its display metadata.
type KPIValue struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Format string  `json:"format"`
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

// ChartData is the {labels, series} pair handed to bar/doughnut charts.
type ChartData struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Series []float64 `json:"series"`
}

// TimeSeriesPoint is one date bucket of a time-series chart.
type TimeSeriesPoint struct {
	BucketKey string  `json:"bucketKey"`
	Value     float64 `json:"value"`
}

// Notification is pushed to connected dashboards over the websocket so they
// re-fetch instead of polling.
type Notification struct {
	Type      string     `json:"type"` // refresh_complete | source_failed
	Source    SourceType `json:"source,omitempty"`
	Message   string     `json:"message,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

const (
	NotifyRefreshComplete = "refresh_complete"
	NotifySourceFailed    = "source_failed"
)
