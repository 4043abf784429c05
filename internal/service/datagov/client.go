package datagov

import (
	"context"
	"errors"
	"strconv"

	"MandiPulse/internal/domain/models"
	drepo "MandiPulse/internal/domain/repository"
	"MandiPulse/pkg/config"
	xhttp "MandiPulse/pkg/http"
)

// Client implements a MarketFeed backed by the data.gov.in market price
// resource. It is stateless; every Fetch is one GET with the request context
// plus the configured client timeout.
type Client struct {
	baseURL    string
	resourceID string
	apiKey     string
	http       *xhttp.Client
}

// New creates a new data.gov.in MarketFeed.
func New(cfg *config.Config) drepo.MarketFeed {
	return &Client{
		baseURL:    cfg.DataGov.BaseURL,
		resourceID: cfg.DataGov.ResourceID,
		apiKey:     cfg.DataGov.APIKey,
		http:       xhttp.NewClient(xhttp.WithTimeout(cfg.DataGov.Timeout)),
	}
}

// Fetch retrieves raw price records for an optional commodity/state filter.
// A legitimately empty match set is not an error; transport failures and
// non-2xx statuses come back as *models.UpstreamError.
func (c *Client) Fetch(ctx context.Context, commodity, state string, limit int) (*models.FetchResult, error) {
	q := map[string][]string{
		"api-key": {c.apiKey},
		"format":  {"json"},
		"limit":   {strconv.Itoa(limit)},
	}
	if commodity != "" {
		q["filters[commodity]"] = []string{commodity}
	}
	if state != "" {
		q["filters[state]"] = []string{state}
	}

	var out models.FetchResult
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/" + c.resourceID,
		QueryParams: q,
	}, &out)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return nil, &models.UpstreamError{Status: se.Status, Message: se.Body}
		}
		return nil, &models.UpstreamError{Message: err.Error()}
	}

	if out.Records == nil {
		out.Records = []models.RawPriceRecord{}
	}
	return &out, nil
}
