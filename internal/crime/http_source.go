package crime

import (
	"context"

	"phillysafe/internal/httpclient"
	"phillysafe/pkg/models"
)

// HTTPSource reads GET {BaseURL}/crime. An empty BaseURL uses the client's
// default base.
type HTTPSource struct {
	Label   string
	BaseURL string
	Client  *httpclient.Client
}

func NewHTTPSource(label, baseURL string, client *httpclient.Client) *HTTPSource {
	return &HTTPSource{Label: label, BaseURL: baseURL, Client: client}
}

func (s *HTTPSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.BaseURL
}

func (s *HTTPSource) FetchIncidents(ctx context.Context) ([]models.RawIncident, error) {
	return httpclient.Request[[]models.RawIncident](ctx, s.Client, "/crime", httpclient.RequestOptions{
		BaseURL: s.BaseURL,
	})
}
