package analytics

import (
	"math"
	"math/rand"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/pkg/util"
)

// Forecaster produces a combined history + projection series around a base
// price. It is deterministic under WithSeed, which tests rely on.
type Forecaster struct {
	rng *rand.Rand
	now func() time.Time
}

type ForecasterOption func(*Forecaster)

// WithSeed makes the generated noise reproducible.
func WithSeed(seed int64) ForecasterOption {
	return func(f *Forecaster) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// WithNow overrides the clock, pinning "today" for tests.
func WithNow(now func() time.Time) ForecasterOption {
	return func(f *Forecaster) {
		f.now = now
	}
}

func NewForecaster(opts ...ForecasterOption) *Forecaster {
	f := &Forecaster{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// splitDays divides a horizon into history and projection. The fixed splits
// match the windows the UI offers; anything else gets a quarter of the
// horizon as history, with today taking the remaining slot.
func splitDays(days int) (past, future int) {
	switch days {
	case 7:
		return 2, 4
	case 15:
		return 4, 10
	case 30:
		return 7, 22
	default:
		past = int(math.Floor(0.25 * float64(days)))
		return past, days - past - 1
	}
}

// Generate returns exactly days points: pastDays historical (or synthesized)
// points, today at exactly basePrice, then futureDays projected points.
//
// Projection is a linear trend fit on the last three known points, plus
// noise scaled by the observed dispersion (widening with distance), plus a
// weekly seasonal wave. Projected prices never drop below 75% of the base.
func (f *Forecaster) Generate(records []models.PriceObservation, basePrice float64, days int) []models.ForecastPoint {
	if days < 2 || basePrice <= 0 {
		return nil
	}
	pastDays, futureDays := splitDays(days)
	today := util.StartOfDayUTC(f.now())

	hist := pricesByDay(records)

	points := make([]models.ForecastPoint, 0, days)
	for i := pastDays; i > 0; i-- {
		date := today.AddDate(0, 0, -i)
		price, ok := hist[date]
		if !ok {
			// Only synthesized prices get rounded; real history is
			// carried through verbatim.
			price = math.Round(basePrice * (1 + (f.rng.Float64()-0.5)*0.08))
		}
		points = append(points, models.ForecastPoint{
			Date:  date,
			Price: price,
		})
	}
	points = append(points, models.ForecastPoint{Date: today, Price: basePrice})

	recent := points
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	trend := (recent[len(recent)-1].Price - recent[0].Price) / float64(len(recent))
	// A flat history legitimately has zero dispersion and projects without
	// noise; the 5% default only covers the degenerate single-point case.
	sigma := 0.05 * basePrice
	if len(points) >= 2 {
		sigma = stdDev(points)
	}

	for i := 1; i <= futureDays; i++ {
		noise := (f.rng.Float64() - 0.5) * sigma * (1 + 0.5*float64(i)/float64(futureDays))
		seasonal := math.Sin(float64(i)/7) * basePrice * 0.02
		price := basePrice + trend*float64(i) + noise + seasonal
		points = append(points, models.ForecastPoint{
			Date:  today.AddDate(0, 0, i),
			Price: math.Max(math.Round(price), basePrice*0.75),
		})
	}
	return points
}

// pricesByDay indexes real prices by UTC calendar day. The first record seen
// for a day wins, so with newest-first input the freshest observation of a
// day is the one used.
func pricesByDay(records []models.PriceObservation) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(records))
	for _, r := range records {
		d := util.StartOfDayUTC(r.Date)
		if _, ok := out[d]; !ok {
			out[d] = r.ModalPrice
		}
	}
	return out
}

// stdDev is the population standard deviation of the point prices.
func stdDev(points []models.ForecastPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	mean := 0.0
	for _, p := range points {
		mean += p.Price
	}
	mean /= float64(len(points))
	variance := 0.0
	for _, p := range points {
		d := p.Price - mean
		variance += d * d
	}
	variance /= float64(len(points))
	return math.Sqrt(variance)
}
