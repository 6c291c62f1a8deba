package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from this epoch (the Lotus/Excel
// convention, including its fictitious 1900-02-29).
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const (
	serialMin = 20000 // ~1954
	serialMax = 60000 // ~2064
)

var (
	plainNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)
	isoPrefix   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	slashDate   = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
)

var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var fallbackLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006 15:04",
	time.RFC1123,
	time.RFC822,
}

// DateParser resolves heterogeneous date encodings into a canonical instant.
// DayFirst settles the ambiguous D/M vs M/D slash-date case; components that
// make the order unambiguous always win over the default.
type DateParser struct {
	DayFirst bool
}

// Parse returns the resolved time or nil when raw carries no parseable date.
// It never fails loudly: unparseable input is nil, not an error.
func (p DateParser) Parse(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	// Spreadsheet serial: days since 1899-12-30, fraction is time of day.
	if plainNumber.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil || serial < serialMin || serial > serialMax {
			return nil
		}
		days := int(serial)
		frac := serial - float64(days)
		// Serial time-of-day carries second granularity at best; rounding
		// absorbs the float error in fractions like .1.
		t := serialEpoch.AddDate(0, 0, days).
			Add(time.Duration(frac * 24 * float64(time.Hour)).Round(time.Second))
		return &t
	}

	if isoPrefix.MatchString(s) {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		return nil
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		return p.fromSlashParts(m)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (p DateParser) fromSlashParts(m []string) *time.Time {
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}

	var day, month int
	switch {
	case a > 12:
		day, month = a, b
	case b > 12:
		day, month = b, a
	case p.DayFirst:
		day, month = a, b
	default:
		day, month = b, a
	}

	var hour, min, sec int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		min, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			sec, _ = strconv.Atoi(m[6])
		}
	}
	return checkedDate(year, month, day, hour, min, sec)
}

// Composite builds a date from separate year/month/day columns. Non-positive
// components or an implausible year mean "dateless", not an error.
func (p DateParser) Composite(year, month, day string) *time.Time {
	y := int(Number(year))
	m := int(Number(month))
	d := int(Number(day))
	if y <= 1900 || m <= 0 || d <= 0 {
		return nil
	}
	return checkedDate(y, m, d, 0, 0, 0)
}

// checkedDate rejects values time.Date would silently normalize, such as
// month 13 or February 30.
func checkedDate(year, month, day, hour, min, sec int) *time.Time {
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || min > 59 || sec > 59 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return nil
	}
	return &t
}

// BucketKey formats a parsed date to the stable day-granularity key used for
// time-series grouping.
func BucketKey(t time.Time) string {
	return t.Format("2006-01-02")
}
