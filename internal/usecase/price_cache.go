package usecase

import (
	"context"
	"time"

	"MandiPulse/internal/domain/models"
	drepo "MandiPulse/internal/domain/repository"
	"MandiPulse/internal/service/datagov"
	"MandiPulse/internal/service/ratelimit"
	applogger "MandiPulse/pkg/logger"
)

// PriceCache sits between the API and the upstream feed. Reads are served
// from the store while rows are fresh; past the freshness window it refreshes
// from upstream, falling back to the stale rows if the refresh fails. A read
// only errors when the store is empty AND upstream is unreachable.
type PriceCache struct {
	store     drepo.PriceStore
	feed      drepo.MarketFeed
	publisher drepo.Publisher // optional
	metrics   drepo.Metrics
	limiter   *ratelimit.Limiter
	l         *applogger.Logger

	freshness  time.Duration
	queryLimit int
	refreshRPS float64
	burst      float64
	now        func() time.Time
}

type PriceCacheOption func(*PriceCache)

// WithPublisher attaches a downstream sink for refreshed observations.
func WithPublisher(p drepo.Publisher) PriceCacheOption {
	return func(c *PriceCache) { c.publisher = p }
}

// WithClock overrides the freshness clock for tests.
func WithClock(now func() time.Time) PriceCacheOption {
	return func(c *PriceCache) { c.now = now }
}

func WithRefreshBudget(rps, burst float64) PriceCacheOption {
	return func(c *PriceCache) {
		c.refreshRPS = rps
		c.burst = burst
	}
}

func NewPriceCache(
	store drepo.PriceStore,
	feed drepo.MarketFeed,
	metrics drepo.Metrics,
	l *applogger.Logger,
	freshness time.Duration,
	queryLimit int,
	opts ...PriceCacheOption,
) *PriceCache {
	c := &PriceCache{
		store:      store,
		feed:       feed,
		metrics:    metrics,
		l:          l,
		freshness:  freshness,
		queryLimit: queryLimit,
		refreshRPS: 0.2,
		burst:      2,
		limiter:    ratelimit.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrices returns the observations for a commodity (optionally narrowed to
// a state), refreshing from upstream when the cached rows have aged out.
//
// Fallback order: fresh cache, upstream, stale cache. Only when all three
// come up empty does the caller see an error, and an empty-but-successful
// upstream response with no cached rows is an empty snapshot, not an error.
// A non-positive limit means the configured default.
func (c *PriceCache) GetPrices(ctx context.Context, commodity, state string, limit int) (*models.CacheSnapshot, error) {
	if limit <= 0 {
		limit = c.queryLimit
	}
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordLatency("get_prices", time.Since(start).Seconds())
		}
	}()

	cached, err := c.store.Query(ctx, commodity, state, limit)
	if err != nil {
		// A broken store degrades to a plain upstream proxy.
		c.l.Error("price store query failed, bypassing cache",
			applogger.String("commodity", commodity),
			applogger.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordError("store_query")
		}
		cached = nil
	}

	if len(cached) > 0 && c.isFresh(cached) {
		if c.metrics != nil {
			c.metrics.RecordCacheHit(commodity, false)
		}
		return &models.CacheSnapshot{Records: cached, FromCache: true}, nil
	}

	// Stale rows mean we have something to fall back on, so refreshes are
	// budgeted per commodity. An empty cache always goes upstream.
	if len(cached) > 0 && !c.limiter.Allow("refresh:"+commodity, c.burst, c.refreshRPS) {
		if c.metrics != nil {
			c.metrics.RecordCacheHit(commodity, true)
		}
		return &models.CacheSnapshot{Records: cached, FromCache: true, IsStale: true}, nil
	}

	if c.metrics != nil {
		c.metrics.RecordCacheMiss(commodity)
	}

	fresh, fetchErr := c.refresh(ctx, commodity, state, limit)
	if fetchErr == nil && len(fresh) > 0 {
		return &models.CacheSnapshot{Records: fresh}, nil
	}

	if len(cached) > 0 {
		if fetchErr != nil {
			c.l.Warn("upstream refresh failed, serving stale records",
				applogger.String("commodity", commodity),
				applogger.Int("stale_rows", len(cached)),
				applogger.Error(fetchErr),
			)
		}
		if c.metrics != nil {
			c.metrics.RecordCacheHit(commodity, true)
		}
		return &models.CacheSnapshot{Records: cached, FromCache: true, IsStale: true}, nil
	}

	if fetchErr != nil {
		if c.metrics != nil {
			c.metrics.RecordError("no_data")
		}
		return nil, &models.NoDataError{Commodity: commodity, Err: fetchErr}
	}
	// Upstream answered but has nothing for this commodity.
	return &models.CacheSnapshot{Records: []models.PriceObservation{}}, nil
}

// refresh fetches from upstream, persists the batch, and notifies the
// publisher. Persisting and publishing are best-effort: the fetched records
// are returned to the caller even when the write-back fails.
func (c *PriceCache) refresh(ctx context.Context, commodity, state string, limit int) ([]models.PriceObservation, error) {
	result, err := c.feed.Fetch(ctx, commodity, state, limit)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordUpstreamRequest("error")
			c.metrics.RecordError("upstream")
		}
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest("ok")
	}

	records := datagov.ToObservations(result.Records, c.now())
	if len(records) == 0 {
		return nil, nil
	}

	if err := c.store.UpsertBatch(ctx, records); err != nil {
		c.l.Error("cache write-back failed",
			applogger.String("commodity", commodity),
			applogger.Int("rows", len(records)),
			applogger.Error(err),
		)
		if c.metrics != nil {
			c.metrics.RecordError("store_upsert")
		}
	}

	if c.publisher != nil {
		if err := c.publisher.PublishBatch(ctx, records); err != nil {
			c.l.Warn("refresh event publish failed",
				applogger.String("commodity", commodity),
				applogger.Error(err),
			)
			if c.metrics != nil {
				c.metrics.RecordError("publish")
			}
		}
	}

	if c.metrics != nil {
		c.metrics.RecordLastPrice(commodity, records[0].ModalPrice)
	}
	return records, nil
}

// isFresh reports whether the newest row was ingested inside the window.
func (c *PriceCache) isFresh(records []models.PriceObservation) bool {
	newest := records[0].IngestedAt
	for _, r := range records[1:] {
		if r.IngestedAt.After(newest) {
			newest = r.IngestedAt
		}
	}
	return c.now().Sub(newest) < c.freshness
}
