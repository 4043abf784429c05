package analytics

import (
	"math"
	"strings"

	"MandiPulse/internal/domain/models"
)

// ComputeStatistics summarizes the modal prices of a record set. The first
// record is taken as current, so callers pass records newest-first. Returns
// nil for an empty set.
//
// Volatility classifies the spread relative to the rounded average:
// strictly above 15% is high, strictly above 7% is medium, otherwise low.
func ComputeStatistics(records []models.PriceObservation) *models.PriceStatistics {
	if len(records) == 0 {
		return nil
	}

	min := records[0].ModalPrice
	max := records[0].ModalPrice
	sum := 0.0
	for _, r := range records {
		if r.ModalPrice < min {
			min = r.ModalPrice
		}
		if r.ModalPrice > max {
			max = r.ModalPrice
		}
		sum += r.ModalPrice
	}
	avg := math.Round(sum / float64(len(records)))

	vol := models.VolatilityLow
	if avg > 0 {
		switch ratio := (max - min) / avg; {
		case ratio > 0.15:
			vol = models.VolatilityHigh
		case ratio > 0.07:
			vol = models.VolatilityMedium
		}
	}

	return &models.PriceStatistics{
		Current:    int(math.Round(records[0].ModalPrice)),
		Min:        int(math.Round(min)),
		Max:        int(math.Round(max)),
		Average:    int(avg),
		Volatility: vol,
	}
}

// FilterByMarket keeps records whose market name contains the query,
// case-insensitively. An empty query keeps everything.
func FilterByMarket(records []models.PriceObservation, market string) []models.PriceObservation {
	q := strings.ToLower(strings.TrimSpace(market))
	if q == "" {
		return records
	}
	out := make([]models.PriceObservation, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Market), q) {
			out = append(out, r)
		}
	}
	return out
}
