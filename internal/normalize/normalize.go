// Package normalize coerces tokenized CSV rows into canonical records and
// decides which rows represent real data.
package normalize

import (
	"strings"

	"github.com/callboard/backend/internal/coerce"
	"github.com/callboard/backend/internal/config"
	"github.com/callboard/backend/internal/mapping"
	"github.com/callboard/backend/internal/metrics"
	"github.com/callboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// Footer/summary sentinels that must never become a chart bucket or survive
// validation in date-keyed sources.
var totalSentinels = map[string]struct{}{
	"total":       {},
	"grand total": {},
	"subtotal":    {},
	"summary":     {},
}

func isTotalSentinel(s string) bool {
	_, ok := totalSentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// sourceSpec bundles one source type's contract: how its rows normalize and
// what makes a row real data. Header candidates live in the mapping config.
type sourceSpec struct {
	normalize func(*Engine, types.RawRecord, map[string]string, config.SourceMapping) types.CanonicalRecord
	isValid   func(types.CanonicalRecord, map[string]string) bool
}

var specs = map[types.SourceType]sourceSpec{
	types.SourceInbound:     {normalize: normalizeInbound, isValid: validInbound},
	types.SourceOutbound:    {normalize: normalizeOutbound, isValid: validOutbound},
	types.SourceConnectRate: {normalize: normalizeConnectRate, isValid: validConnectRate},
	types.SourceFCR:         {normalize: normalizeFCR, isValid: validFCR},
}

// Engine normalizes raw rows for every known source type.
type Engine struct {
	dates            coerce.DateParser
	connectThreshold float64
	mapping          *config.Mapping
	logger           zerolog.Logger
}

// NewEngine creates a normalization engine from the loaded configuration.
func NewEngine(cfg *config.Config, m *config.Mapping, logger zerolog.Logger) *Engine {
	return &Engine{
		dates:            coerce.DateParser{DayFirst: cfg.DayFirst},
		connectThreshold: cfg.ConnectThresholdSeconds,
		mapping:          m,
		logger:           logger.With().Str("component", "normalize").Logger(),
	}
}

// Roles resolves the logical fields of src against the observed headers.
func (e *Engine) Roles(src types.SourceType, headers []string) map[string]string {
	srcMap, ok := e.mapping.Source(string(src))
	if !ok {
		return map[string]string{}
	}
	return mapping.ResolveAll(headers, srcMap.Fields)
}

// Normalize converts one raw row for src using pre-resolved roles.
func (e *Engine) Normalize(src types.SourceType, raw types.RawRecord, roles map[string]string) types.CanonicalRecord {
	spec, ok := specs[src]
	if !ok {
		return baseRecord(raw)
	}
	srcMap, _ := e.mapping.Source(string(src))
	return spec.normalize(e, raw, roles, srcMap)
}

// Valid applies src's validity predicate. Records failing it are never
// stored, so store contents stay valid by construction.
func (e *Engine) Valid(src types.SourceType, rec types.CanonicalRecord, roles map[string]string) bool {
	if allBlank(rec.Fields) {
		return false
	}
	spec, ok := specs[src]
	if !ok {
		return false
	}
	return spec.isValid(rec, roles)
}

// NormalizeAll runs the full normalize-then-validate pass over a source's
// rows. A panic in one row skips that row only; it never aborts the load.
func (e *Engine) NormalizeAll(src types.SourceType, headers []string, rows []types.RawRecord) ([]types.CanonicalRecord, map[string]string) {
	roles := e.Roles(src, headers)
	m := metrics.Get()

	records := make([]types.CanonicalRecord, 0, len(rows))
	for i, raw := range rows {
		rec, err := e.normalizeSafe(src, raw, roles)
		if err != nil {
			m.RecordRowError(src)
			e.logger.Warn().
				Str("source", string(src)).
				Int("row", i).
				Err(err).
				Msg("row skipped after normalization panic")
			continue
		}
		if !e.Valid(src, rec, roles) {
			m.RecordRowRejected(src)
			continue
		}
		m.RecordRowNormalized(src)
		records = append(records, rec)
	}
	return records, roles
}

func (e *Engine) normalizeSafe(src types.SourceType, raw types.RawRecord, roles map[string]string) (rec types.CanonicalRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RowError{Source: src, Cause: r}
		}
	}()
	return e.Normalize(src, raw, roles), nil
}

// baseRecord copies every original column under its trimmed name.
func baseRecord(raw types.RawRecord) types.CanonicalRecord {
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return types.CanonicalRecord{
		Fields:  fields,
		Metrics: make(map[string]float64),
		Flags:   make(map[string]bool),
	}
}

// field reads the value behind a logical role, "" when unresolved.
func field(rec types.CanonicalRecord, roles map[string]string, logical string) string {
	header, ok := roles[logical]
	if !ok {
		return ""
	}
	return rec.Fields[strings.TrimSpace(header)]
}

func allBlank(fields map[string]string) bool {
	for _, v := range fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// bucketKey derives the chart grouping key: ISO day when the date parsed,
// raw date text as a display fallback, never a total sentinel.
func bucketKey(rec types.CanonicalRecord, roles map[string]string) string {
	if rec.ParsedDate != nil {
		return coerce.BucketKey(*rec.ParsedDate)
	}
	raw := strings.TrimSpace(field(rec, roles, types.FieldDate))
	if raw == "" || isTotalSentinel(raw) {
		return ""
	}
	return raw
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
