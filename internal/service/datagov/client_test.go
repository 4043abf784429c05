package datagov

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/pkg/config"
)

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.DataGov.BaseURL = baseURL
	cfg.DataGov.ResourceID = "resource-id"
	cfg.DataGov.APIKey = "test-key"
	cfg.DataGov.Timeout = 2 * time.Second
	return cfg
}

func TestFetchBuildsQueryAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api-key") != "test-key" {
			t.Errorf("api-key = %q", q.Get("api-key"))
		}
		if q.Get("format") != "json" {
			t.Errorf("format = %q", q.Get("format"))
		}
		if q.Get("limit") != "50" {
			t.Errorf("limit = %q", q.Get("limit"))
		}
		if q.Get("filters[commodity]") != "Wheat" {
			t.Errorf("commodity filter = %q", q.Get("filters[commodity]"))
		}
		if q.Get("filters[state]") != "Madhya Pradesh" {
			t.Errorf("state filter = %q", q.Get("filters[state]"))
		}
		w.Header().Set("Content-Type", "application/json")
		// modal_price as string, min_price as number: both shapes occur upstream
		_, _ = w.Write([]byte(`{
			"records": [
				{"state":"Madhya Pradesh","market":"Indore Mandi","commodity":"Wheat",
				 "arrival_date":"25/02/2025","min_price":2100,"max_price":"2300","modal_price":"2200"}
			],
			"total": 1, "count": 1
		}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	res, err := c.Fetch(context.Background(), "Wheat", "Madhya Pradesh", 50)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Total != 1 || res.Count != 1 || len(res.Records) != 1 {
		t.Fatalf("unexpected envelope: %+v", res)
	}
	r := res.Records[0]
	if float64(r.ModalPrice) != 2200 || float64(r.MinPrice) != 2100 || float64(r.MaxPrice) != 2300 {
		t.Fatalf("unexpected prices: %+v", r)
	}
}

func TestFetchEmptyRecordsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records": [], "total": 0, "count": 0}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	res, err := c.Fetch(context.Background(), "Saffron", "", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("expected no records")
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.Fetch(context.Background(), "Wheat", "", 10)
	var ue *models.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", ue.Status)
	}
}

func TestFetchTransportError(t *testing.T) {
	c := New(testConfig("http://127.0.0.1:1"))
	_, err := c.Fetch(context.Background(), "Wheat", "", 10)
	var ue *models.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != 0 {
		t.Fatalf("transport errors carry no status, got %d", ue.Status)
	}
}

func TestToObservations(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	raw := []models.RawPriceRecord{
		{Commodity: "Wheat", Market: "Indore Mandi", State: "MP", ArrivalDate: "25/02/2025",
			MinPrice: 2100, MaxPrice: 2300, ModalPrice: 2200},
		{Commodity: "Wheat", Market: "Bhopal", ArrivalDate: "garbage",
			ModalPrice: 2150},
		{Commodity: "Wheat", Market: "Ujjain",
			ModalPrice: models.FlexFloat(math.NaN())}, // unparseable price: dropped
		{Commodity: "", Market: "Anonymous", ModalPrice: 100}, // no commodity: dropped
	}

	obs := ToObservations(raw, now)
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if !obs[0].Date.Equal(time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", obs[0].Date)
	}
	// malformed date falls back to today's UTC day
	if !obs[1].Date.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("fallback date = %v", obs[1].Date)
	}
	for _, o := range obs {
		if !o.IngestedAt.Equal(now) {
			t.Fatalf("ingested_at = %v", o.IngestedAt)
		}
	}
}
