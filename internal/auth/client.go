// Package auth talks to the PhillySafe auth service and owns the
// client-side session lifecycle.
package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"phillysafe/internal/httpclient"
	"phillysafe/pkg/models"
)

var formHeader = http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}

// Client issues the form-encoded auth calls. BaseURL selects the auth
// service when HTTP is bound to another backend.
type Client struct {
	HTTP    *httpclient.Client
	BaseURL string
}

func NewClient(hc *httpclient.Client, baseURL string) *Client {
	return &Client{HTTP: hc, BaseURL: baseURL}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterRequest struct {
	Username    string
	Password    string
	DisplayName string
}

// RegisterResult carries the created user and, if the service issued
// one, an access token.
type RegisterResult struct {
	User  models.User
	Token string
}

// Login exchanges credentials for a bearer token. It does not install the
// token anywhere.
func (c *Client) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	if err := requireCredentials(username, password); err != nil {
		return TokenResponse{}, err
	}
	tok, err := httpclient.Request[TokenResponse](ctx, c.HTTP, "/login", httpclient.RequestOptions{
		Method:  http.MethodPost,
		Header:  formHeader,
		Body:    url.Values{"username": {username}, "password": {password}},
		BaseURL: c.BaseURL,
	})
	if err != nil {
		return TokenResponse{}, err
	}
	if tok.AccessToken == "" {
		return TokenResponse{}, &httpclient.ValidationError{Field: "access_token", Reason: "missing from login response"}
	}
	return tok, nil
}

// Register creates an account. Missing fields of the returned user are
// filled from the request.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (RegisterResult, error) {
	if err := requireCredentials(in.Username, in.Password); err != nil {
		return RegisterResult{}, err
	}
	form := url.Values{"username": {in.Username}, "password": {in.Password}}
	if in.DisplayName != "" {
		form.Set("display_name", in.DisplayName)
	}

	var resp struct {
		models.User
		AccessToken string `json:"access_token"`
	}
	err := c.HTTP.Do(ctx, "/register", httpclient.RequestOptions{
		Method:  http.MethodPost,
		Header:  formHeader,
		Body:    form,
		BaseURL: c.BaseURL,
	}, &resp)
	if err != nil {
		return RegisterResult{}, err
	}

	user := resp.User
	if user.Username == "" {
		user.Username = in.Username
	}
	if user.DisplayName == "" {
		user.DisplayName = firstNonEmpty(in.DisplayName, user.Username)
	}
	if user.ID == "" {
		user.ID = models.Text(user.Username)
	}
	return RegisterResult{User: user, Token: resp.AccessToken}, nil
}

// Profile resolves the user behind the session's current token.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	user, err := httpclient.Request[models.User](ctx, c.HTTP, "/profile", httpclient.RequestOptions{
		BaseURL: c.BaseURL,
	})
	if err != nil {
		return models.User{}, err
	}
	if user.ID == "" {
		user.ID = models.Text(user.Username)
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	return user, nil
}

func requireCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &httpclient.ValidationError{Field: "username", Reason: "required"}
	}
	if password == "" {
		return &httpclient.ValidationError{Field: "password", Reason: "required"}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
