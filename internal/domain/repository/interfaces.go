package repository

import (
	"context"

	"MandiPulse/internal/domain/models"
)

// PriceStore is the persistent table of price observations. Upserts are
// keyed on (commodity, market, observation_date); the latest ingestion wins.
type PriceStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	UpsertBatch(ctx context.Context, records []models.PriceObservation) error
	// Query returns up to limit rows, newest observation date first with
	// ingestion time breaking ties.
	Query(ctx context.Context, commodity, state string, limit int) ([]models.PriceObservation, error)
	Health(ctx context.Context) error
	Close() error
}

// MarketFeed fetches raw price records from the upstream government API.
type MarketFeed interface {
	Fetch(ctx context.Context, commodity, state string, limit int) (*models.FetchResult, error)
}

// Publisher receives the observations written on a successful refresh.
// Delivery is best-effort; failures never affect the read path.
type Publisher interface {
	PublishBatch(ctx context.Context, records []models.PriceObservation) error
	Close() error
}

type Metrics interface {
	RecordCacheHit(commodity string, stale bool)
	RecordCacheMiss(commodity string)
	RecordUpstreamRequest(outcome string)
	RecordError(kind string)
	RecordLastPrice(commodity string, price float64)
	RecordLatency(op string, seconds float64)
}
