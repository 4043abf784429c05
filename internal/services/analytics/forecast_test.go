package analytics

import (
	"math"
	"testing"
	"time"

	"MandiPulse/internal/domain/models"
)

var fixedNow = func() time.Time {
	return time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
}

func TestGenerateSevenDayShape(t *testing.T) {
	f := NewForecaster(WithSeed(1), WithNow(fixedNow))
	points := f.Generate(nil, 2400, 7)

	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	// 2 past, today, 4 future: today sits at index 2 at exactly the base.
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !points[2].Date.Equal(today) {
		t.Errorf("today at %v, want %v", points[2].Date, today)
	}
	if points[2].Price != 2400 {
		t.Errorf("today's price = %v, want exactly base 2400", points[2].Price)
	}
	for i := 1; i < len(points); i++ {
		if d := points[i].Date.Sub(points[i-1].Date); d != 24*time.Hour {
			t.Errorf("gap between point %d and %d is %v, want 24h", i-1, i, d)
		}
	}
}

func TestGenerateDaySplits(t *testing.T) {
	cases := []struct {
		days, past, future int
	}{
		{7, 2, 4},
		{15, 4, 10},
		{30, 7, 22},
		{10, 2, 7},  // floor(0.25*10)=2
		{21, 5, 15}, // floor(0.25*21)=5
	}
	f := NewForecaster(WithSeed(2), WithNow(fixedNow))
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, tc := range cases {
		points := f.Generate(nil, 1000, tc.days)
		if len(points) != tc.days {
			t.Fatalf("days=%d: got %d points", tc.days, len(points))
		}
		past, future := 0, 0
		for _, p := range points {
			switch {
			case p.Date.Before(today):
				past++
			case p.Date.After(today):
				future++
			}
		}
		if past != tc.past || future != tc.future {
			t.Errorf("days=%d: split %d/%d, want %d/%d", tc.days, past, future, tc.past, tc.future)
		}
	}
}

func TestGenerateFloorAcrossSeeds(t *testing.T) {
	const base = 1800.0
	for seed := int64(0); seed < 50; seed++ {
		f := NewForecaster(WithSeed(seed), WithNow(fixedNow))
		for _, p := range f.Generate(nil, base, 30) {
			if p.Price < base*0.75 {
				t.Fatalf("seed %d: projected price %v below floor %v", seed, p.Price, base*0.75)
			}
		}
	}
}

func TestGenerateDeterministicUnderSeed(t *testing.T) {
	a := NewForecaster(WithSeed(42), WithNow(fixedNow)).Generate(nil, 3000, 15)
	b := NewForecaster(WithSeed(42), WithNow(fixedNow)).Generate(nil, 3000, 15)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateUsesRealHistory(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2025, 3, 10+offset, 0, 0, 0, 0, time.UTC)
	}
	records := []models.PriceObservation{
		{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 1510.5, Date: day(-1)},
		{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 1490.5, Date: day(-2)},
		{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 1475, Date: day(-5)},
	}

	f := NewForecaster(WithSeed(7), WithNow(fixedNow))
	points := f.Generate(records, 1500, 7)

	// History slots match real records by calendar day and carry the
	// observed price untouched, fractional paise included; the day(-5)
	// record falls outside the 2-day history window and is ignored.
	if points[0].Price != 1490.5 {
		t.Errorf("price for %v = %v, want 1490.5", points[0].Date, points[0].Price)
	}
	if points[1].Price != 1510.5 {
		t.Errorf("price for %v = %v, want 1510.5", points[1].Date, points[1].Price)
	}
}

func TestGenerateFloorWithFractionalBase(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2025, 3, 10+offset, 0, 0, 0, 0, time.UTC)
	}
	// A steep decline drives every projected point into the floor. With a
	// fractional base the floor itself is fractional, and rounding must not
	// dip the clamped price below it.
	records := []models.PriceObservation{
		{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 2500, Date: day(-1)},
		{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 4000, Date: day(-2)},
	}
	const base = 1000.4
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for seed := int64(0); seed < 20; seed++ {
		f := NewForecaster(WithSeed(seed), WithNow(fixedNow))
		for _, p := range f.Generate(records, base, 7) {
			if p.Date.After(today) && p.Price < base*0.75 {
				t.Fatalf("seed %d: price %v on %v below floor %v", seed, p.Price, p.Date, base*0.75)
			}
		}
	}
}

func TestGenerateFlatHistoryIsNoiseFree(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2025, 3, 10+offset, 0, 0, 0, 0, time.UTC)
	}
	// Modal prices often sit unchanged for days. Zero dispersion means zero
	// noise, so the projection depends only on trend and seasonality and is
	// identical under any seed.
	records := []models.PriceObservation{
		{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 1500, Date: day(-1)},
		{Commodity: "Onion", Market: "Lasalgaon", ModalPrice: 1500, Date: day(-2)},
	}

	a := NewForecaster(WithSeed(3), WithNow(fixedNow)).Generate(records, 1500, 7)
	b := NewForecaster(WithSeed(99), WithNow(fixedNow)).Generate(records, 1500, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs across seeds: %+v vs %+v", i, a[i], b[i])
		}
	}
	for i := 3; i < len(a); i++ {
		offset := i - 2 // days past today
		want := math.Round(1500 + math.Sin(float64(offset)/7)*1500*0.02)
		if a[i].Price != want {
			t.Errorf("point %d price = %v, want %v", i, a[i].Price, want)
		}
	}
}

func TestGenerateRejectsDegenerateInput(t *testing.T) {
	f := NewForecaster(WithSeed(1), WithNow(fixedNow))
	if got := f.Generate(nil, 0, 7); got != nil {
		t.Errorf("zero base should produce no forecast, got %d points", len(got))
	}
	if got := f.Generate(nil, 1000, 1); got != nil {
		t.Errorf("1-day horizon should produce no forecast, got %d points", len(got))
	}
}
