package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MandiPulse/internal/domain/models"
	svccache "MandiPulse/internal/service/cache"
	"MandiPulse/internal/services/analytics"
)

var engineNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func seedRows(store *fakeStore, rows ...models.PriceObservation) {
	for _, r := range rows {
		store.rows[store.key(r)] = r
	}
}

func row(market string, modal float64, dayOffset int) models.PriceObservation {
	d := time.Date(2025, 3, 10+dayOffset, 0, 0, 0, 0, time.UTC)
	return models.PriceObservation{
		Commodity: "Onion", Market: market, State: "Maharashtra",
		ModalPrice: modal, Date: d, IngestedAt: engineNow,
	}
}

func testEngine(t *testing.T, store *fakeStore, feed *fakeFeed) *PriceEngine {
	t.Helper()
	c := seededCache(t, store, feed, engineNow)
	f := analytics.NewForecaster(analytics.WithSeed(1), analytics.WithNow(func() time.Time { return engineNow }))
	return NewPriceEngine(c, f, svccache.NewTTLCache(), time.Minute, store, testLogger(t))
}

func TestGetLatestPriceTieBreak(t *testing.T) {
	store := newFakeStore()
	older := row("Lasalgaon", 1400, -1)
	sameDayEarly := row("Pimpalgaon", 1450, 0)
	sameDayEarly.IngestedAt = engineNow.Add(-2 * time.Hour)
	sameDayLate := row("Lasalgaon", 1500, 0)
	seedRows(store, older, sameDayEarly, sameDayLate)

	e := testEngine(t, store, &fakeFeed{err: errors.New("down")})
	got, err := e.GetLatestPrice(context.Background(), "onion", "", "")
	if err != nil {
		t.Fatalf("GetLatestPrice: %v", err)
	}
	if got.Market != "Lasalgaon" || got.ModalPrice != 1500 {
		t.Errorf("latest = %s %v, want same-day row with newest ingestion (Lasalgaon 1500)", got.Market, got.ModalPrice)
	}

	got, err = e.GetLatestPrice(context.Background(), "onion", "", "pimpal")
	if err != nil {
		t.Fatalf("GetLatestPrice with market filter: %v", err)
	}
	if got.Market != "Pimpalgaon" {
		t.Errorf("market-filtered latest = %s, want Pimpalgaon", got.Market)
	}
}

func TestGetPriceTrendAveragesPerDay(t *testing.T) {
	store := newFakeStore()
	seedRows(store,
		row("Lasalgaon", 1400, -2),
		row("Lasalgaon", 1500, -1),
		row("Pimpalgaon", 1600, -1), // same day, different market: averaged
		row("Lasalgaon", 1700, 0),
	)

	e := testEngine(t, store, &fakeFeed{err: errors.New("down")})
	points, err := e.GetPriceTrend(context.Background(), "onion", "", 30)
	if err != nil {
		t.Fatalf("GetPriceTrend: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d trend points, want 3 days", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Errorf("trend not ascending at %d: %v >= %v", i, points[i-1].Date, points[i].Date)
		}
	}
	if points[1].Price != 1550 {
		t.Errorf("same-day average = %v, want 1550", points[1].Price)
	}

	// A narrower window keeps only the most recent days.
	points, err = e.GetPriceTrend(context.Background(), "onion", "", 2)
	if err != nil {
		t.Fatalf("GetPriceTrend: %v", err)
	}
	if len(points) != 2 || points[1].Price != 1700 {
		t.Errorf("windowed trend = %+v, want last 2 days ending at 1700", points)
	}
}

func TestGetMarketsForCommoditySortedUnique(t *testing.T) {
	store := newFakeStore()
	seedRows(store,
		row("Pimpalgaon", 1450, 0),
		row("Lasalgaon", 1500, 0),
		row("Lasalgaon", 1400, -1),
	)

	e := testEngine(t, store, &fakeFeed{err: errors.New("down")})
	markets, err := e.GetMarketsForCommodity(context.Background(), "onion", "")
	if err != nil {
		t.Fatalf("GetMarketsForCommodity: %v", err)
	}
	want := []string{"Lasalgaon", "Pimpalgaon"}
	if len(markets) != len(want) {
		t.Fatalf("markets = %v, want %v", markets, want)
	}
	for i := range want {
		if markets[i] != want[i] {
			t.Fatalf("markets = %v, want %v", markets, want)
		}
	}

	// Second call is memoized; dropping the rows must not change the answer
	// inside the TTL.
	store.rows = map[string]models.PriceObservation{}
	again, err := e.GetMarketsForCommodity(context.Background(), "onion", "")
	if err != nil {
		t.Fatalf("memoized call: %v", err)
	}
	if len(again) != 2 {
		t.Errorf("memoized markets = %v, want cached %v", again, want)
	}
}

func TestGetPriceStatisticsFiltersMarket(t *testing.T) {
	store := newFakeStore()
	seedRows(store,
		row("Lasalgaon", 1000, 0),
		row("Pimpalgaon", 5000, 0),
	)

	e := testEngine(t, store, &fakeFeed{err: errors.New("down")})
	st, err := e.GetPriceStatistics(context.Background(), "onion", "", "lasalgaon")
	if err != nil {
		t.Fatalf("GetPriceStatistics: %v", err)
	}
	if st.Min != 1000 || st.Max != 1000 {
		t.Errorf("stats = %+v, want only Lasalgaon rows", st)
	}

	if _, err := e.GetPriceStatistics(context.Background(), "onion", "", "nowhere"); err == nil {
		t.Error("expected NoDataError for market with no rows")
	}
}

func TestForecastSummary(t *testing.T) {
	store := newFakeStore()
	rows := []models.PriceObservation{
		row("Lasalgaon", 1500, 0),
		row("Lasalgaon", 1480, -1),
		row("Lasalgaon", 1460, -2),
	}
	for i := range rows {
		rows[i].IngestedAt = engineNow.Add(-13 * time.Hour) // aged past the window
	}
	seedRows(store, rows...)

	e := testEngine(t, store, &fakeFeed{err: errors.New("down")})
	res, err := e.Forecast(context.Background(), "onion", "", "", 7, 0)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(res.Points) != 7 {
		t.Fatalf("forecast has %d points, want 7", len(res.Points))
	}
	if res.BasePrice <= 0 {
		t.Errorf("base price = %v, want > 0", res.BasePrice)
	}
	wantRec := "hold"
	if res.ChangePercent < 0 {
		wantRec = "sell"
	}
	if res.Recommendation != wantRec {
		t.Errorf("recommendation = %q, want %q for change %v", res.Recommendation, wantRec, res.ChangePercent)
	}
	last := res.Points[len(res.Points)-1].Price
	if (res.ChangePercent > 0) != (last > res.BasePrice) {
		t.Errorf("change %v inconsistent with last point %v vs base %v", res.ChangePercent, last, res.BasePrice)
	}
	if !res.Stale {
		t.Error("snapshot served from old rows with upstream down should be stale")
	}
}

func TestForecastMarketFallback(t *testing.T) {
	store := newFakeStore()
	seedRows(store, row("Lasalgaon", 1500, 0))

	e := testEngine(t, store, &fakeFeed{err: errors.New("down")})
	res, err := e.Forecast(context.Background(), "onion", "", "no-such-market", 7, 0)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if !res.Fallback {
		t.Error("expected fallback flag when market filter matches nothing")
	}
}

func TestForecastNoData(t *testing.T) {
	e := testEngine(t, newFakeStore(), &fakeFeed{err: errors.New("down")})
	_, err := e.Forecast(context.Background(), "onion", "", "", 7, 0)
	var nde *models.NoDataError
	if !errors.As(err, &nde) {
		t.Fatalf("expected NoDataError, got %v", err)
	}
}

func TestForecastFallbackBase(t *testing.T) {
	e := testEngine(t, newFakeStore(), &fakeFeed{err: errors.New("down")})
	res, err := e.Forecast(context.Background(), "onion", "", "", 7, 1200)
	if err != nil {
		t.Fatalf("Forecast with fallback base: %v", err)
	}
	if !res.Fallback {
		t.Error("expected fallback flag for synthetic forecast")
	}
	if res.BasePrice != 1200 {
		t.Errorf("base price = %v, want 1200", res.BasePrice)
	}
	if len(res.Points) != 7 {
		t.Fatalf("forecast has %d points, want 7", len(res.Points))
	}
	for _, p := range res.Points {
		if p.Price < 0.75*1200 {
			t.Errorf("point %v below floor", p.Price)
		}
	}
}
