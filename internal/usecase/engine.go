package usecase

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"MandiPulse/internal/domain/models"
	drepo "MandiPulse/internal/domain/repository"
	svccache "MandiPulse/internal/service/cache"
	"MandiPulse/internal/services/analytics"
	applogger "MandiPulse/pkg/logger"
	"MandiPulse/pkg/util"
)

// ForecastResult is a generated forecast plus the summary figures the UI
// renders next to the chart.
type ForecastResult struct {
	Points         []models.ForecastPoint `json:"points"`
	BasePrice      float64                `json:"base_price"`
	ChangePercent  float64                `json:"change_percent"`
	AveragePrice   float64                `json:"average_price"`
	Recommendation string                 `json:"recommendation"` // sell or hold
	Volatility     models.Volatility      `json:"volatility"`
	Stale          bool                   `json:"stale"`
	Fallback       bool                   `json:"fallback"`
}

// TrendPoint is one averaged day in a price trend series.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceEngine answers the derived queries on top of the cache: latest price,
// trend, market list, statistics and forecast. Market and statistics lookups
// are memoized briefly since they are recomputed on every dashboard render.
type PriceEngine struct {
	cache      *PriceCache
	forecaster *analytics.Forecaster
	memo       svccache.BytesCache
	memoTTL    time.Duration
	store      drepo.PriceStore
	l          *applogger.Logger
}

func NewPriceEngine(
	cache *PriceCache,
	forecaster *analytics.Forecaster,
	memo svccache.BytesCache,
	memoTTL time.Duration,
	store drepo.PriceStore,
	l *applogger.Logger,
) *PriceEngine {
	return &PriceEngine{
		cache:      cache,
		forecaster: forecaster,
		memo:       memo,
		memoTTL:    memoTTL,
		store:      store,
		l:          l,
	}
}

// GetPrices proxies the cache read, optionally narrowing to markets whose
// name contains the market query. A non-positive limit means the configured
// default.
func (e *PriceEngine) GetPrices(ctx context.Context, commodity, state, market string, limit int) (*models.CacheSnapshot, error) {
	snap, err := e.cache.GetPrices(ctx, commodity, state, limit)
	if err != nil {
		return nil, err
	}
	if market != "" {
		snap.Records = analytics.FilterByMarket(snap.Records, market)
	}
	return snap, nil
}

// GetLatestPrice picks the most recent observation, optionally at markets
// matching the market query: newest observation date first, ingestion time
// breaking ties between same-day rows.
func (e *PriceEngine) GetLatestPrice(ctx context.Context, commodity, state, market string) (*models.PriceObservation, error) {
	snap, err := e.cache.GetPrices(ctx, commodity, state, 0)
	if err != nil {
		return nil, err
	}
	records := snap.Records
	if market != "" {
		records = analytics.FilterByMarket(records, market)
	}
	if len(records) == 0 {
		return nil, &models.NoDataError{Commodity: commodity}
	}
	latest := records[0]
	for _, r := range records[1:] {
		if r.Date.After(latest.Date) ||
			(util.SameUTCDay(r.Date, latest.Date) && r.IngestedAt.After(latest.IngestedAt)) {
			latest = r
		}
	}
	return &latest, nil
}

// GetPriceTrend averages modal prices per UTC calendar day and returns the
// most recent days points in ascending date order. Averages are rounded to
// whole rupees.
func (e *PriceEngine) GetPriceTrend(ctx context.Context, commodity, state string, days int) ([]TrendPoint, error) {
	snap, err := e.cache.GetPrices(ctx, commodity, state, 0)
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[time.Time]*acc)
	for _, r := range snap.Records {
		d := util.StartOfDayUTC(r.Date)
		a, ok := byDay[d]
		if !ok {
			a = &acc{}
			byDay[d] = a
		}
		a.sum += r.ModalPrice
		a.n++
	}

	points := make([]TrendPoint, 0, len(byDay))
	for d, a := range byDay {
		points = append(points, TrendPoint{
			Date:  d,
			Price: math.Round(a.sum / float64(a.n)),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}
	return points, nil
}

// GetMarketsForCommodity lists the distinct market names reporting a
// commodity, sorted alphabetically.
func (e *PriceEngine) GetMarketsForCommodity(ctx context.Context, commodity, state string) ([]string, error) {
	memoKey := "markets:" + strings.ToLower(commodity) + ":" + strings.ToLower(state)
	if names, ok := e.memoGet(memoKey); ok {
		var out []string
		if err := json.Unmarshal(names, &out); err == nil {
			return out, nil
		}
	}

	snap, err := e.cache.GetPrices(ctx, commodity, state, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(snap.Records))
	markets := make([]string, 0, len(snap.Records))
	for _, r := range snap.Records {
		if r.Market == "" {
			continue
		}
		if _, dup := seen[r.Market]; dup {
			continue
		}
		seen[r.Market] = struct{}{}
		markets = append(markets, r.Market)
	}
	sort.Strings(markets)

	e.memoSet(memoKey, markets)
	return markets, nil
}

// GetPriceStatistics summarizes the current record set for a commodity.
func (e *PriceEngine) GetPriceStatistics(ctx context.Context, commodity, state, market string) (*models.PriceStatistics, error) {
	memoKey := "stats:" + strings.ToLower(commodity) + ":" + strings.ToLower(state) + ":" + strings.ToLower(market)
	if b, ok := e.memoGet(memoKey); ok {
		var st models.PriceStatistics
		if err := json.Unmarshal(b, &st); err == nil {
			return &st, nil
		}
	}

	snap, err := e.GetPrices(ctx, commodity, state, market, 0)
	if err != nil {
		return nil, err
	}
	st := analytics.ComputeStatistics(snap.Records)
	if st == nil {
		return nil, &models.NoDataError{Commodity: commodity}
	}

	e.memoSet(memoKey, st)
	return st, nil
}

// Forecast generates a price projection for a commodity at one market.
// Market filtering falls back to the whole record set when the requested
// market has no rows, so a typo still gets a commodity-level forecast. When
// no data exists anywhere, a positive fallbackBase produces a fully
// synthetic series instead of an error so the caller can still render a
// chart; the result is flagged as a fallback.
func (e *PriceEngine) Forecast(ctx context.Context, commodity, state, market string, days int, fallbackBase float64) (*ForecastResult, error) {
	var records []models.PriceObservation
	stale := false
	fallback := false

	snap, err := e.cache.GetPrices(ctx, commodity, state, 0)
	switch {
	case err == nil:
		records = snap.Records
		stale = snap.IsStale
	case fallbackBase > 0:
		fallback = true
	default:
		return nil, err
	}

	if market != "" && len(records) > 0 {
		filtered := analytics.FilterByMarket(records, market)
		if len(filtered) > 0 {
			records = filtered
		} else {
			fallback = true
		}
	}

	base := fallbackBase
	if len(records) > 0 {
		base = records[0].ModalPrice
	} else if fallbackBase <= 0 {
		return nil, &models.NoDataError{Commodity: commodity}
	} else {
		fallback = true
	}

	points := e.forecaster.Generate(records, base, days)
	if len(points) == 0 {
		return nil, &models.NoDataError{Commodity: commodity}
	}

	last := points[len(points)-1].Price
	change := 0.0
	if base > 0 {
		change = math.Round((last-base)/base*10000) / 100
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Price
	}
	avg := math.Round(sum / float64(len(points)))

	// Falling forecast: sell now before it drops further.
	rec := "hold"
	if change < 0 {
		rec = "sell"
	}

	vol := models.VolatilityLow
	if st := analytics.ComputeStatistics(records); st != nil {
		vol = st.Volatility
	}

	return &ForecastResult{
		Points:         points,
		BasePrice:      base,
		ChangePercent:  change,
		AveragePrice:   avg,
		Recommendation: rec,
		Volatility:     vol,
		Stale:          stale,
		Fallback:       fallback,
	}, nil
}

// Health reports store reachability.
func (e *PriceEngine) Health(ctx context.Context) error {
	return e.store.Health(ctx)
}

func (e *PriceEngine) memoGet(key string) ([]byte, bool) {
	if e.memo == nil {
		return nil, false
	}
	b, ok, err := e.memo.GetBytes(key)
	if err != nil {
		e.l.Debug("memo read failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (e *PriceEngine) memoSet(key string, v interface{}) {
	if e.memo == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := e.memo.SetBytes(key, b, e.memoTTL); err != nil {
		e.l.Debug("memo write failed", applogger.String("key", key), applogger.Error(err))
	}
}
