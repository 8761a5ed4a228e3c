package config

import (
	"testing"
	"time"
)

func TestParseExpiryUnits(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, tc := range cases {
		got, ok := ParseExpiry(tc.in)
		if !ok {
			t.Fatalf("ParseExpiry(%q) not recognized", tc.in)
		}
		if got != tc.want {
			t.Fatalf("ParseExpiry(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseExpiryRejectsUnknownPatterns(t *testing.T) {
	for _, in := range []string{"", "soon", "d7", "10s"} {
		if d, ok := ParseExpiry(in); ok {
			t.Fatalf("ParseExpiry(%q) unexpectedly parsed to %v", in, d)
		}
	}
}

func TestParseExpiryMatchesFirstNumberUnitPair(t *testing.T) {
	// Legacy configs sometimes carry trailing noise; the first <n><unit>
	// match wins.
	got, ok := ParseExpiry("30m extra")
	if !ok || got != 30*time.Minute {
		t.Fatalf("ParseExpiry(\"30m extra\") = %v ok=%v", got, ok)
	}
}
