// Package store holds the in-memory snapshots of every loaded source.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/callboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// snapshot is one source's loaded state. Replaced wholesale on every load,
// never mutated in place.
type snapshot struct {
	records []types.CanonicalRecord
	roles   map[string]string // logical field -> actual header
	meta    types.SourceMeta
}

// Stores keeps one snapshot per source type behind a read-write lock.
// Queries return copies; a load swaps the whole snapshot.
type Stores struct {
	mu     sync.RWMutex
	data   map[types.SourceType]*snapshot
	logger zerolog.Logger
}

// New creates an empty store set.
func New(logger zerolog.Logger) *Stores {
	return &Stores{
		data:   make(map[types.SourceType]*snapshot),
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Load replaces src's snapshot with the given records. Insertion order is
// CSV row order and is preserved.
func (s *Stores) Load(src types.SourceType, records []types.CanonicalRecord, roles map[string]string, meta types.SourceMeta) {
	meta.Source = src
	meta.RowCount = len(records)
	meta.FirstDate, meta.LastDate = dateRange(records)
	if meta.LoadedAt.IsZero() {
		meta.LoadedAt = time.Now()
	}

	s.mu.Lock()
	s.data[src] = &snapshot{records: records, roles: roles, meta: meta}
	s.mu.Unlock()

	s.logger.Info().
		Str("source", string(src)).
		Int("rows", len(records)).
		Msg("source snapshot replaced")
}

// SetError empties src's snapshot and records the attributed failure. A
// failed source is left empty, never stale.
func (s *Stores) SetError(src types.SourceType, loadErr string) {
	s.mu.Lock()
	s.data[src] = &snapshot{
		meta: types.SourceMeta{
			Source:    src,
			LoadedAt:  time.Now(),
			LoadError: loadErr,
		},
	}
	s.mu.Unlock()
}

// Query returns a filtered copy of src's records. It never fails: an
// unknown or unloaded source yields an empty result.
func (s *Stores) Query(src types.SourceType, f types.FilterCriteria) []types.CanonicalRecord {
	s.mu.RLock()
	snap, ok := s.data[src]
	s.mu.RUnlock()
	if !ok {
		return []types.CanonicalRecord{}
	}

	// Date-range filtering only applies when at least one record parsed a
	// date; an all-null-date source must not vanish under a default range.
	applyDates := (f.Start != nil || f.End != nil) && anyParsedDate(snap.records)

	// Same principle for substring filters: a source whose headers never
	// resolved the filtered role must not vanish under it.
	_, hasAgent := snap.roles[types.FieldAgent]
	applyAgent := f.Agent != "" && hasAgent
	_, hasStatus := snap.roles[types.FieldStatus]
	applyStatus := f.Status != "" && hasStatus

	out := make([]types.CanonicalRecord, 0, len(snap.records))
	for _, rec := range snap.records {
		if applyDates && !inRange(rec.ParsedDate, f.Start, f.End) {
			continue
		}
		if applyAgent && !fieldContains(rec, snap.roles, types.FieldAgent, f.Agent) {
			continue
		}
		if applyStatus && !fieldContains(rec, snap.roles, types.FieldStatus, f.Status) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Roles returns the resolved logical-field headers of src's snapshot.
func (s *Stores) Roles(src types.SourceType) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.data[src]; ok {
		return snap.roles
	}
	return map[string]string{}
}

// Meta returns snapshot metadata for every known source, in load order.
// Sources never loaded get a zero-count entry.
func (s *Stores) Meta() []types.SourceMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metas := make([]types.SourceMeta, 0, len(types.AllSources))
	for _, src := range types.AllSources {
		if snap, ok := s.data[src]; ok {
			metas = append(metas, snap.meta)
		} else {
			metas = append(metas, types.SourceMeta{Source: src})
		}
	}
	return metas
}

// Columns returns the observed column order of src's snapshot.
func (s *Stores) Columns(src types.SourceType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.data[src]; ok {
		return snap.meta.Columns
	}
	return nil
}

// Clear drops every snapshot, used before a manual full refresh.
func (s *Stores) Clear() {
	s.mu.Lock()
	s.data = make(map[types.SourceType]*snapshot)
	s.mu.Unlock()
}

func anyParsedDate(records []types.CanonicalRecord) bool {
	for i := range records {
		if records[i].ParsedDate != nil {
			return true
		}
	}
	return false
}

// inRange applies the date filter. Records without a parsed date are never
// matched by a date range; they are displayable but not range-filterable.
func inRange(d *time.Time, start, end *time.Time) bool {
	if d == nil {
		return false
	}
	if start != nil && d.Before(*start) {
		return false
	}
	if end != nil && d.After(*end) {
		return false
	}
	return true
}

func fieldContains(rec types.CanonicalRecord, roles map[string]string, logical, needle string) bool {
	header, ok := roles[logical]
	if !ok {
		return false
	}
	value := rec.Fields[strings.TrimSpace(header)]
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

func dateRange(records []types.CanonicalRecord) (first, last *time.Time) {
	for i := range records {
		d := records[i].ParsedDate
		if d == nil {
			continue
		}
		if first == nil || d.Before(*first) {
			first = d
		}
		if last == nil || d.After(*last) {
			last = d
		}
	}
	return first, last
}
