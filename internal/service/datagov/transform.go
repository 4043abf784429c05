package datagov

import (
	"math"
	"strings"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/pkg/util"
)

// ToObservations converts raw upstream rows into storable observations.
// Malformed arrival dates fall back to today's UTC day; rows without a
// parseable modal price are dropped. Partial data beats a failed batch.
func ToObservations(raw []models.RawPriceRecord, now time.Time) []models.PriceObservation {
	out := make([]models.PriceObservation, 0, len(raw))
	for _, r := range raw {
		if !r.ModalPrice.Valid() {
			continue
		}
		if strings.TrimSpace(r.Commodity) == "" || strings.TrimSpace(r.Market) == "" {
			continue
		}
		out = append(out, models.PriceObservation{
			Commodity:  strings.TrimSpace(r.Commodity),
			Market:     strings.TrimSpace(r.Market),
			State:      strings.TrimSpace(r.State),
			District:   r.District,
			Variety:    r.Variety,
			Grade:      r.Grade,
			MinPrice:   nonNegative(float64(r.MinPrice)),
			MaxPrice:   nonNegative(float64(r.MaxPrice)),
			ModalPrice: float64(r.ModalPrice),
			Date:       util.ParseArrivalDate(r.ArrivalDate, now),
			IngestedAt: now,
		})
	}
	return out
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
