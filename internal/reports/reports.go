// Package reports wraps the community report endpoints.
package reports

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"phillysafe/internal/httpclient"
	"phillysafe/pkg/models"
)

var (
	severities = map[string]bool{"low": true, "medium": true, "high": true}
	statuses   = map[string]bool{"pending": true, "reviewed": true, "resolved": true}
)

// Client talks to the reports service through HTTP. Per-user summaries are
// kept by the auth service, reached through AuthBaseURL.
type Client struct {
	HTTP        *httpclient.Client
	AuthBaseURL string
}

func NewClient(hc *httpclient.Client, authBaseURL string) *Client {
	return &Client{HTTP: hc, AuthBaseURL: authBaseURL}
}

func (c *Client) List(ctx context.Context) ([]models.UserReport, error) {
	return httpclient.Request[[]models.UserReport](ctx, c.HTTP, "/reports", httpclient.RequestOptions{})
}

func (c *Client) Get(ctx context.Context, id string) (models.UserReport, error) {
	if id == "" {
		return models.UserReport{}, &httpclient.ValidationError{Field: "id", Reason: "required"}
	}
	return httpclient.Request[models.UserReport](ctx, c.HTTP, "/reports/"+url.PathEscape(id), httpclient.RequestOptions{})
}

func (c *Client) Create(ctx context.Context, in models.CreateReportRequest) (models.UserReport, error) {
	if err := ValidateCreate(in); err != nil {
		return models.UserReport{}, err
	}
	in.Severity = strings.ToLower(strings.TrimSpace(in.Severity))
	if in.Photos == nil {
		in.Photos = []string{}
	}
	return httpclient.Request[models.UserReport](ctx, c.HTTP, "/reports", httpclient.RequestOptions{
		Method: http.MethodPost,
		Body:   in,
	})
}

// UpdateStatus sends the new status both as the query parameter the
// service reads and as a JSON body.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	if id == "" {
		return &httpclient.ValidationError{Field: "id", Reason: "required"}
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !statuses[status] {
		return &httpclient.ValidationError{Field: "status", Reason: "must be pending, reviewed or resolved"}
	}
	return c.HTTP.Do(ctx, "/reports/"+url.PathEscape(id)+"/status", httpclient.RequestOptions{
		Method: http.MethodPut,
		Query:  url.Values{"status": {status}},
		Body:   map[string]string{"status": status},
	}, nil)
}

func (c *Client) UserSummary(ctx context.Context, username string) (models.ReportSummary, error) {
	if username == "" {
		return models.ReportSummary{}, &httpclient.ValidationError{Field: "username", Reason: "required"}
	}
	return httpclient.Request[models.ReportSummary](ctx, c.HTTP, "/reports/"+url.PathEscape(username), httpclient.RequestOptions{
		BaseURL: c.AuthBaseURL,
	})
}

func (c *Client) UserReports(ctx context.Context, username string) ([]models.AccountReport, error) {
	if username == "" {
		return nil, &httpclient.ValidationError{Field: "username", Reason: "required"}
	}
	return httpclient.Request[[]models.AccountReport](ctx, c.HTTP, "/reports/"+url.PathEscape(username)+"/all", httpclient.RequestOptions{
		BaseURL: c.AuthBaseURL,
	})
}

// ValidateCreate checks the required fields of a new report.
func ValidateCreate(in models.CreateReportRequest) error {
	switch {
	case strings.TrimSpace(in.Type) == "":
		return &httpclient.ValidationError{Field: "type", Reason: "required"}
	case strings.TrimSpace(in.Description) == "":
		return &httpclient.ValidationError{Field: "description", Reason: "required"}
	case strings.TrimSpace(in.Location) == "" && !hasCoordinates(in):
		return &httpclient.ValidationError{Field: "location", Reason: "required"}
	}
	if !severities[strings.ToLower(strings.TrimSpace(in.Severity))] {
		return &httpclient.ValidationError{Field: "severity", Reason: "must be low, medium or high"}
	}
	return nil
}

// hasCoordinates reports whether a device position stands in for the
// typed location.
func hasCoordinates(in models.CreateReportRequest) bool {
	return in.UseCurrentLocation && in.Lat != nil && in.Lng != nil
}
