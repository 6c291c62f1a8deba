package normalize

import (
	"fmt"
	"strings"

	"github.com/callboard/backend/internal/coerce"
	"github.com/callboard/backend/internal/config"
	"github.com/callboard/backend/internal/types"
)

// RowError wraps a recovered per-row normalization panic.
type RowError struct {
	Source types.SourceType
	Cause  any
}

func (e *RowError) Error() string {
	return fmt.Sprintf("source %s: row normalization failed: %v", e.Source, e.Cause)
}

func normalizeInbound(e *Engine, raw types.RawRecord, roles map[string]string, srcMap config.SourceMapping) types.CanonicalRecord {
	rec := baseRecord(raw)

	if d := field(rec, roles, types.FieldDate); d != "" {
		rec.ParsedDate = e.dates.Parse(d)
	}
	rec.ChartBucketKey = bucketKey(rec, roles)

	if v := field(rec, roles, types.FieldDuration); v != "" {
		rec.Metrics[types.MetricDurationSecs] = coerce.DurationSeconds(v)
	}
	if v := field(rec, roles, types.FieldWait); v != "" {
		rec.Metrics[types.MetricWaitSecs] = coerce.DurationSeconds(v)
	}

	status := field(rec, roles, types.FieldStatus)
	for _, kw := range srcMap.AbandonedKeywords {
		if kw != "" && containsFold(status, kw) {
			rec.Flags[types.FlagAbandoned] = true
			break
		}
	}
	return rec
}

func validInbound(rec types.CanonicalRecord, roles map[string]string) bool {
	// Stray header/footer rows never carry a call identifier.
	return strings.TrimSpace(field(rec, roles, types.FieldCallID)) != ""
}

func normalizeOutbound(e *Engine, raw types.RawRecord, roles map[string]string, _ config.SourceMapping) types.CanonicalRecord {
	rec := baseRecord(raw)

	if d := field(rec, roles, types.FieldDate); d != "" {
		rec.ParsedDate = e.dates.Parse(d)
	}
	rec.ChartBucketKey = bucketKey(rec, roles)

	// Aggregate daily rows: fixed category counts. A "connected" notion is
	// not derivable here, only the per-call connect-rate source has it.
	counts := map[string]string{
		types.MetricCalls:     types.FieldCalls,
		types.MetricAnswered:  types.FieldAnswered,
		types.MetricMissed:    types.FieldMissed,
		types.MetricVoicemail: types.FieldVoicemail,
	}
	for metric, logical := range counts {
		if v := field(rec, roles, logical); v != "" {
			rec.Metrics[metric] = coerce.Number(v)
		}
	}
	if v := field(rec, roles, types.FieldDuration); v != "" {
		rec.Metrics[types.MetricTalkSecs] = coerce.DurationSeconds(v)
	}
	return rec
}

func validOutbound(rec types.CanonicalRecord, roles map[string]string) bool {
	// Rows are per-agent daily aggregates; a blank agent is a total line.
	if strings.TrimSpace(field(rec, roles, types.FieldAgent)) == "" {
		return false
	}
	return !isTotalSentinel(field(rec, roles, types.FieldDate))
}

func normalizeConnectRate(e *Engine, raw types.RawRecord, roles map[string]string, _ config.SourceMapping) types.CanonicalRecord {
	rec := baseRecord(raw)

	if d := field(rec, roles, types.FieldDate); d != "" {
		rec.ParsedDate = e.dates.Parse(d)
	}
	rec.ChartBucketKey = bucketKey(rec, roles)

	rec.Flags[types.FlagOutbound] = containsFold(field(rec, roles, types.FieldDirection), "outbound")

	secs := coerce.DurationSeconds(field(rec, roles, types.FieldDuration))
	rec.Metrics[types.MetricDurationSecs] = secs
	rec.Flags[types.FlagConnected] = secs > e.connectThreshold
	return rec
}

func validConnectRate(rec types.CanonicalRecord, roles map[string]string) bool {
	// Inbound legs in the same export are not data for this source.
	if !rec.Flag(types.FlagOutbound) {
		return false
	}
	return strings.TrimSpace(field(rec, roles, types.FieldCallID)) != ""
}

func normalizeFCR(e *Engine, raw types.RawRecord, roles map[string]string, _ config.SourceMapping) types.CanonicalRecord {
	rec := baseRecord(raw)

	rec.ParsedDate = e.dates.Composite(
		field(rec, roles, types.FieldYear),
		field(rec, roles, types.FieldMonth),
		field(rec, roles, types.FieldDay),
	)
	if rec.ParsedDate != nil {
		rec.ChartBucketKey = coerce.BucketKey(*rec.ParsedDate)
	}

	if v := field(rec, roles, types.FieldCount); v != "" {
		rec.Metrics[types.MetricCases] = coerce.Number(v)
	}
	return rec
}

func validFCR(rec types.CanonicalRecord, roles map[string]string) bool {
	if strings.TrimSpace(field(rec, roles, types.FieldYear)) == "" {
		return false
	}
	// Pivot exports end with Total/Grand Total lines in the day column.
	if isTotalSentinel(field(rec, roles, types.FieldDay)) || isTotalSentinel(field(rec, roles, types.FieldYear)) {
		return false
	}
	// A row whose composite date did not resolve (month 13, day 0) is not
	// usable data for this source.
	return rec.ParsedDate != nil
}
