package coerce

import "testing"

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain integer", "42", 42},
		{"plain float", "3.5", 3.5},
		{"empty", "", 0},
		{"whitespace only", "   ", 0},
		{"letters", "abc", 0},
		{"thousands comma", "2,500", 2500},
		{"double thousands comma", "1,234,567", 1234567},
		{"thousands with decimal", "1,234.56", 1234.56},
		{"european grouped decimal", "1.234.567,89", 1234567.89},
		{"european small", "1.234,5", 1234.5},
		{"decimal comma", "12,5", 12.5},
		{"parenthesized negative", "(123.45)", -123.45},
		{"parenthesized grouped", "(1,000)", -1000},
		{"explicit negative", "-17", -17},
		{"currency prefix", "$1,200.50", 1200.5},
		{"currency suffix", "99,90 €", 99.9},
		{"percent suffix", "85%", 85},
		{"non-breaking space group", "1 234", 1234},
		{"zero", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Number(tt.in); got != tt.want {
				t.Errorf("Number(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDurationSeconds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"minutes seconds", "02:31", 151},
		{"exact threshold", "02:30", 150},
		{"hours minutes seconds", "1:02:03", 3723},
		{"plain seconds", "95", 95},
		{"decimal seconds", "95.5", 95.5},
		{"empty", "", 0},
		{"garbage", "n/a", 0},
		{"too many parts", "1:2:3:4", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationSeconds(tt.in); got != tt.want {
				t.Errorf("DurationSeconds(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
