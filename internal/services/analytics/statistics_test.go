package analytics

import (
	"testing"

	"MandiPulse/internal/domain/models"
)

func obs(market string, modal float64) models.PriceObservation {
	return models.PriceObservation{Commodity: "Wheat", Market: market, ModalPrice: modal}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	if got := ComputeStatistics(nil); got != nil {
		t.Fatalf("expected nil statistics for empty input, got %+v", got)
	}
}

func TestComputeStatisticsBasic(t *testing.T) {
	records := []models.PriceObservation{
		obs("Azadpur", 100),
		obs("Ghazipur", 120),
		obs("Okhla", 140),
	}
	st := ComputeStatistics(records)
	if st == nil {
		t.Fatal("expected statistics")
	}
	if st.Current != 100 {
		t.Errorf("current = %d, want 100 (first record)", st.Current)
	}
	if st.Min != 100 || st.Max != 140 {
		t.Errorf("min/max = %d/%d, want 100/140", st.Min, st.Max)
	}
	if st.Average != 120 {
		t.Errorf("average = %d, want 120", st.Average)
	}
	// (140-100)/120 = 33% spread
	if st.Volatility != models.VolatilityHigh {
		t.Errorf("volatility = %q, want high", st.Volatility)
	}
}

func TestComputeStatisticsVolatilityBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		prices []float64
		want   models.Volatility
	}{
		{"exact 15% spread is medium", []float64{92.5, 107.5}, models.VolatilityMedium}, // range 15, avg 100
		{"just above 15% is high", []float64{92, 108}, models.VolatilityHigh},
		{"exact 7% spread is low", []float64{96.5, 103.5}, models.VolatilityLow}, // range 7, avg 100
		{"just above 7% is medium", []float64{96, 104}, models.VolatilityMedium},
		{"flat series is low", []float64{100, 100, 100}, models.VolatilityLow},
		{"single record is low", []float64{250}, models.VolatilityLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := make([]models.PriceObservation, 0, len(tc.prices))
			for _, p := range tc.prices {
				records = append(records, obs("Azadpur", p))
			}
			st := ComputeStatistics(records)
			if st.Volatility != tc.want {
				t.Errorf("volatility = %q, want %q", st.Volatility, tc.want)
			}
		})
	}
}

func TestFilterByMarket(t *testing.T) {
	records := []models.PriceObservation{
		obs("Azadpur Mandi", 100),
		obs("Ghazipur", 110),
		obs("New Azadpur Yard", 120),
	}

	got := FilterByMarket(records, "azadpur")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	for _, r := range got {
		if r.Market == "Ghazipur" {
			t.Errorf("filter kept non-matching market %q", r.Market)
		}
	}

	if got := FilterByMarket(records, ""); len(got) != len(records) {
		t.Errorf("empty query should keep all records, got %d", len(got))
	}
	if got := FilterByMarket(records, "nowhere"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}
