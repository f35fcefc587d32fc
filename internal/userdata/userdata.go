// Package userdata reads the gamification records kept by the backend.
package userdata

import (
	"context"
	"net/http"
	"net/url"

	"phillysafe/internal/httpclient"
	"phillysafe/pkg/models"
)

type Client struct {
	HTTP *httpclient.Client
}

func NewClient(hc *httpclient.Client) *Client {
	return &Client{HTTP: hc}
}

// Get fails with a 404 *httpclient.HTTPError when the user has no record yet.
func (c *Client) Get(ctx context.Context, userID string) (models.UserStats, error) {
	if userID == "" {
		return models.UserStats{}, &httpclient.ValidationError{Field: "user_id", Reason: "required"}
	}
	return httpclient.Request[models.UserStats](ctx, c.HTTP, "/userdata/"+url.PathEscape(userID), httpclient.RequestOptions{})
}

// Lookup is Get with "no record yet" reported as ok=false instead of an error.
func (c *Client) Lookup(ctx context.Context, userID string) (*models.UserStats, bool, error) {
	stats, err := c.Get(ctx, userID)
	if err != nil {
		if httpclient.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *Client) Create(ctx context.Context, in models.CreateUserStatsRequest) (models.UserStats, error) {
	if in.UserID == "" {
		return models.UserStats{}, &httpclient.ValidationError{Field: "user_id", Reason: "required"}
	}
	return httpclient.Request[models.UserStats](ctx, c.HTTP, "/userdata", httpclient.RequestOptions{
		Method: http.MethodPost,
		Body:   in,
	})
}

// Leaderboard returns the ranking in server order.
func (c *Client) Leaderboard(ctx context.Context) ([]models.UserStats, error) {
	return httpclient.Request[[]models.UserStats](ctx, c.HTTP, "/userdata/leaderboard", httpclient.RequestOptions{})
}
