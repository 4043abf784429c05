package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// FlexFloat decodes a price that the upstream API reports either as a JSON
// number or as a numeric string, depending on the dataset revision.
// Unparseable values decode to NaN so the transform layer can drop them
// without failing the batch.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = FlexFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = FlexFloat(math.NaN())
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// Valid reports whether the decoded value is a usable, non-negative price.
func (f FlexFloat) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && v >= 0
}

// RawPriceRecord is one row as reported by the upstream market price API.
type RawPriceRecord struct {
	State       string    `json:"state"`
	District    string    `json:"district"`
	Market      string    `json:"market"`
	Commodity   string    `json:"commodity"`
	Variety     string    `json:"variety"`
	Grade       string    `json:"grade"`
	ArrivalDate string    `json:"arrival_date"` // DD/MM/YYYY
	MinPrice    FlexFloat `json:"min_price"`
	MaxPrice    FlexFloat `json:"max_price"`
	ModalPrice  FlexFloat `json:"modal_price"`
}

// FetchResult is the upstream API envelope the engine depends on.
type FetchResult struct {
	Records []RawPriceRecord `json:"records"`
	Total   int              `json:"total"`
	Count   int              `json:"count"`
}

// PriceObservation is one reported price at one market on one date.
// Date is pinned to a UTC calendar day; IngestedAt records the cache write.
type PriceObservation struct {
	Commodity  string    `json:"commodity"`
	Market     string    `json:"market"`
	State      string    `json:"state"`
	District   string    `json:"district,omitempty"`
	Variety    string    `json:"variety,omitempty"`
	Grade      string    `json:"grade,omitempty"`
	MinPrice   float64   `json:"min_price"`
	MaxPrice   float64   `json:"max_price"`
	ModalPrice float64   `json:"modal_price"`
	Date       time.Time `json:"observation_date"`
	IngestedAt time.Time `json:"ingested_at"`
}

// CommodityKey is the normalized case-insensitive match key.
func (o PriceObservation) CommodityKey() string {
	return strings.ToLower(strings.TrimSpace(o.Commodity))
}

// CacheSnapshot is the result of a cached read. IsStale implies FromCache:
// stale data is only ever served out of the store after a failed refresh.
type CacheSnapshot struct {
	Records   []PriceObservation `json:"records"`
	FromCache bool               `json:"from_cache"`
	IsStale   bool               `json:"stale"`
}

// ForecastPoint is a (date, price) pair in a generated or historical series.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Volatility is a discrete classification of price dispersion.
type Volatility string

const (
	VolatilityLow    Volatility = "low"
	VolatilityMedium Volatility = "medium"
	VolatilityHigh   Volatility = "high"
)

// PriceStatistics summarizes a record set. Derived at query time, never stored.
type PriceStatistics struct {
	Current    int        `json:"current"`
	Min        int        `json:"min"`
	Max        int        `json:"max"`
	Average    int        `json:"average"`
	Volatility Volatility `json:"volatility"`
}
