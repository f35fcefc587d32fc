package crime

import (
	"context"
	"net/http"
	"net/url"

	"phillysafe/internal/httpclient"
	"phillysafe/pkg/models"
)

// Client groups the crime-data operations. HTTP is bound to the primary
// crime backend; SimulatedBaseURL points at the backend that serves
// /crime/filtered.
type Client struct {
	HTTP             *httpclient.Client
	SimulatedBaseURL string
	Incidents        Source
}

func NewClient(hc *httpclient.Client, simulatedBaseURL string, incidents Source) *Client {
	return &Client{HTTP: hc, SimulatedBaseURL: simulatedBaseURL, Incidents: incidents}
}

// GetIncidents reads the full incident list through the configured source,
// normally a Chain of primary then simulated backend.
func (c *Client) GetIncidents(ctx context.Context) ([]models.RawIncident, error) {
	return c.Incidents.FetchIncidents(ctx)
}

func (c *Client) GetFilteredIncidents(ctx context.Context, f Filter) ([]models.RawIncident, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return httpclient.Request[[]models.RawIncident](ctx, c.HTTP, "/crime/filtered", httpclient.RequestOptions{
		BaseURL: c.SimulatedBaseURL,
		Query:   f.Query(),
	})
}

func (c *Client) GetIncident(ctx context.Context, id string) (models.RawIncident, error) {
	if id == "" {
		return models.RawIncident{}, &httpclient.ValidationError{Field: "id", Reason: "required"}
	}
	return httpclient.Request[models.RawIncident](ctx, c.HTTP, "/crime/"+url.PathEscape(id), httpclient.RequestOptions{})
}

// CreateIncident posts an official-shape record (the ingest path).
func (c *Client) CreateIncident(ctx context.Context, in models.OfficialIncident) (models.RawIncident, error) {
	return httpclient.Request[models.RawIncident](ctx, c.HTTP, "/crime", httpclient.RequestOptions{
		Method: http.MethodPost,
		Body:   in,
	})
}
