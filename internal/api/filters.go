package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/callboard/backend/internal/types"
)

const dateLayout = "2006-01-02"

// FilterError rejects an invalid filter before it touches any store; the
// caller keeps its prior filter state.
type FilterError struct {
	Reason string
}

func (e *FilterError) Error() string { return e.Reason }

// parseFilters builds FilterCriteria from query parameters. start/end are
// ISO days; end is inclusive of its whole day.
func parseFilters(q url.Values, maxSpanDays int) (types.FilterCriteria, error) {
	var f types.FilterCriteria

	if raw := q.Get("start"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, &FilterError{Reason: fmt.Sprintf("invalid start date %q, want YYYY-MM-DD", raw)}
		}
		f.Start = &t
	}
	if raw := q.Get("end"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, &FilterError{Reason: fmt.Sprintf("invalid end date %q, want YYYY-MM-DD", raw)}
		}
		t = t.Add(24*time.Hour - time.Second)
		f.End = &t
	}

	if f.Start != nil && f.End != nil {
		if f.End.Before(*f.Start) {
			return types.FilterCriteria{}, &FilterError{Reason: "end date is before start date"}
		}
		if maxSpanDays > 0 {
			span := f.End.Sub(*f.Start)
			if span > time.Duration(maxSpanDays)*24*time.Hour {
				return types.FilterCriteria{}, &FilterError{
					Reason: fmt.Sprintf("date range exceeds the maximum of %d days", maxSpanDays),
				}
			}
		}
	}

	f.Agent = q.Get("agent")
	f.Status = q.Get("status")
	return f, nil
}
