package util

import (
	"testing"
	"time"
)

func TestParseArrivalDate(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)
	got := ParseArrivalDate("25/02/2025", now)
	want := time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseArrivalDateMalformedFallsBackToToday(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)
	for _, s := range []string{"", "not-a-date", "2025-02-25", "31/13/2025"} {
		got := ParseArrivalDate(s, now)
		want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
}

func TestStartOfDayUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 01:30 IST is still the previous UTC day
	in := time.Date(2025, 3, 15, 1, 30, 0, 0, loc)
	got := StartOfDayUTC(in)
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSameUTCDay(t *testing.T) {
	a := time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	c := time.Date(2025, 3, 15, 0, 1, 0, 0, time.UTC)
	if !SameUTCDay(a, b) {
		t.Fatalf("expected same day")
	}
	if SameUTCDay(a, c) {
		t.Fatalf("expected different days")
	}
}
