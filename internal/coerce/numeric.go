package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numericJunk   = regexp.MustCompile(`[^0-9+\-.,()]`)
	europeanGroup = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+,\d{1,2}$`)
	thousandComma = regexp.MustCompile(`,(\d{3})\b`)
)

// Number converts heterogeneous textual number encodings into a float64.
// Thousand separators, European decimal commas, parenthesis negatives and
// currency symbols are all tolerated. It never fails: nil-ish, empty or
// unparseable input yields 0 so downstream sums stay safe to accumulate.
func Number(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	// Non-breaking and narrow spaces show up in localized exports.
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ':
			return -1
		}
		return r
	}, s)

	// Currency symbols, percent signs and stray letters go first.
	s = numericJunk.ReplaceAllString(s, "")
	if s == "" {
		return 0
	}

	// Accounting convention: (123.45) means -123.45.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return -Number(s[1 : len(s)-1])
	}

	if europeanGroup.MatchString(s) {
		// 1.234.567,89 - dots group thousands, comma is the decimal.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = thousandComma.ReplaceAllString(s, "$1")
		// A single leftover comma with no dot is a plain decimal comma.
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// DurationSeconds converts a talk/wait time cell into seconds. Accepts
// H:MM:SS, MM:SS and plain numeric seconds (in any encoding Number accepts).
func DurationSeconds(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if !strings.Contains(s, ":") {
		return Number(s)
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}
	var secs float64
	for _, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || n < 0 {
			return 0
		}
		secs = secs*60 + n
	}
	return secs
}
