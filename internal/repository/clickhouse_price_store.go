package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MandiPulse/internal/domain/models"
	pkgch "MandiPulse/pkg/clickhouse"
	applogger "MandiPulse/pkg/logger"
	"MandiPulse/pkg/util"
)

// CHPriceStore implements PriceStore backed by ClickHouse.
//
// The table is a ReplacingMergeTree versioned on ingested_at and ordered by
// (commodity_key, market, observation_date), so re-ingesting an existing
// (commodity, market, date) key replaces the row: reads use FINAL and the
// latest ingestion wins. That gives upsert semantics without UPDATE support.
type CHPriceStore struct {
	db    *sql.DB
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client, table string) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), ch: ch, table: table}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) Init(ctx context.Context) error {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            commodity        String,
            commodity_key    LowCardinality(String),
            market           String,
            state            LowCardinality(String),
            district         String,
            variety          String,
            grade            String,
            min_price        Float64,
            max_price        Float64,
            modal_price      Float64,
            observation_date Date,
            ingested_at      DateTime64(3, 'UTC')
        )
        ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (commodity_key, market, observation_date)
    `, s.table)
	return s.ch.InitSchema(ctx, []string{ddl})
}

// UpsertBatch writes a batch of observations. The batch is all-or-nothing:
// any insert error fails the whole call and the caller must not assume a
// subset was written.
func (s *CHPriceStore) UpsertBatch(ctx context.Context, records []models.PriceObservation) error {
	if len(records) == 0 {
		return nil
	}

	const chunkSize = 500
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for _, r := range records[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Commodity,
				r.CommodityKey(),
				r.Market,
				r.State,
				r.District,
				r.Variety,
				r.Grade,
				r.MinPrice,
				r.MaxPrice,
				r.ModalPrice,
				r.Date,
				r.IngestedAt,
			)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (commodity, commodity_key, market, state, district, variety, grade, min_price, max_price, modal_price, observation_date, ingested_at) VALUES %s",
			s.table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse upsert error",
					applogger.String("table", s.table),
					applogger.Int("rows", end-start),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("upsert batch: %w", err)
		}
	}
	return nil
}

// Query returns up to limit observations, newest observation first with
// ingestion time as the tie-break. Commodity match is case-insensitive on
// the normalized key; state filter is optional.
func (s *CHPriceStore) Query(ctx context.Context, commodity, state string, limit int) ([]models.PriceObservation, error) {
	start := time.Now()

	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if commodity != "" {
		conds = append(conds, "commodity_key = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(commodity)))
	}
	if state != "" {
		conds = append(conds, "lowerUTF8(state) = lowerUTF8(?)")
		args = append(args, state)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)

	q := fmt.Sprintf(`
        SELECT commodity, market, state, district, variety, grade,
               min_price, max_price, modal_price, observation_date, ingested_at
        FROM %s FINAL
        %s
        ORDER BY observation_date DESC, ingested_at DESC
        LIMIT ?
    `, s.table, where)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query error",
				applogger.String("table", s.table),
				applogger.String("commodity", commodity),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceObservation, 0, limit)
	for rows.Next() {
		var o models.PriceObservation
		var date time.Time
		if err := rows.Scan(&o.Commodity, &o.Market, &o.State, &o.District, &o.Variety, &o.Grade,
			&o.MinPrice, &o.MaxPrice, &o.ModalPrice, &date, &o.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Date = util.StartOfDayUTC(date)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse query ok",
			applogger.String("commodity", commodity),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHPriceStore) Close() error {
	return nil // pool is managed by pkg/clickhouse
}
