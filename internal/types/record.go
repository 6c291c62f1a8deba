package types

import "time"

// SourceType identifies one independently loaded CSV dataset.
type SourceType string

const (
	SourceInbound     SourceType = "inbound"
	SourceOutbound    SourceType = "outbound"
	SourceConnectRate SourceType = "outbound_connectrate"
	SourceFCR         SourceType = "fcr"
)

// AllSources lists every known source in load order.
var AllSources = []SourceType{SourceInbound, SourceOutbound, SourceConnectRate, SourceFCR}

// Known returns true if s is one of the configured source types.
func (s SourceType) Known() bool {
	for _, k := range AllSources {
		if s == k {
			return true
		}
	}
	return false
}

// Logical field roles resolved per source via header mapping.
const (
	FieldDate      = "date"
	FieldAgent     = "agent"
	FieldStatus    = "status"
	FieldDuration  = "duration"
	FieldWait      = "wait"
	FieldCallID    = "call_id"
	FieldDirection = "direction"
	FieldCalls     = "calls"
	FieldAnswered  = "answered"
	FieldMissed    = "missed"
	FieldVoicemail = "voicemail"
	FieldYear      = "year"
	FieldMonth     = "month"
	FieldDay       = "day"
	FieldCount     = "count"
)

// Derived numeric metric keys on a CanonicalRecord.
const (
	MetricDurationSecs = "duration_seconds"
	MetricWaitSecs     = "wait_seconds"
	MetricCalls        = "calls"
	MetricAnswered     = "answered"
	MetricMissed       = "missed"
	MetricVoicemail    = "voicemail"
	MetricTalkSecs     = "talk_seconds"
	MetricCases        = "cases"
)

// Derived boolean flag keys on a CanonicalRecord.
const (
	FlagAbandoned = "abandoned"
	FlagConnected = "connected"
	FlagOutbound  = "outbound"
)

// RawRecord is one tokenized CSV row: column name to untyped string value.
// Ephemeral, discarded after normalization.
type RawRecord map[string]string

// CanonicalRecord is the normalized per-source row shape consumed by
// filtering, KPI computation and export.
type CanonicalRecord struct {
	// Fields preserves every original column under its trimmed original
	// name, for display and export passthrough.
	Fields map[string]string `json:"fields"`

	// ParsedDate is the resolved instant for the record, nil when the
	// source text was unparseable.
	ParsedDate *time.Time `json:"parsedDate,omitempty"`

	// ChartBucketKey groups records into time buckets: ISO day when a
	// date parsed, raw source text as fallback, "" when neither exists.
	ChartBucketKey string `json:"chartBucketKey,omitempty"`

	// Metrics holds derived numeric fields keyed by Metric* constants.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	// Flags holds derived booleans keyed by Flag* constants.
	Flags map[string]bool `json:"flags,omitempty"`
}

// Metric returns the named derived metric and whether it was derived at all.
func (r *CanonicalRecord) Metric(key string) (float64, bool) {
	v, ok := r.Metrics[key]
	return v, ok
}

// Flag returns the named derived flag, false when absent.
func (r *CanonicalRecord) Flag(key string) bool {
	return r.Flags[key]
}

// FilterCriteria is the query shape applied to a source store. Zero values
// mean "no constraint"; applying it never mutates the store.
type FilterCriteria struct {
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
	Agent  string     `json:"agent,omitempty"`
	Status string     `json:"status,omitempty"`
}

// IsZero reports whether no constraint is set.
func (f FilterCriteria) IsZero() bool {
	return f.Start == nil && f.End == nil && f.Agent == "" && f.Status == ""
}

// SourceMeta describes one loaded snapshot.
type SourceMeta struct {
	Source    SourceType `json:"source"`
	LoadID    string     `json:"loadId,omitempty"`
	LoadedAt  time.Time  `json:"loadedAt"`
	RowCount  int        `json:"rowCount"`
	FirstDate *time.Time `json:"firstDate,omitempty"`
	LastDate  *time.Time `json:"lastDate,omitempty"`
	Columns   []string   `json:"columns,omitempty"`
	LoadError string     `json:"loadError,omitempty"`
}
