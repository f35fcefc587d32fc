package devserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"phillysafe/pkg/models"
)

var fixedNow = time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := OpenRepo(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	gen := NewGenerator(200, 7)
	gen.Now = func() time.Time { return fixedNow }

	s := New(repo, TokenService{Secret: []byte("test-secret"), Issuer: "devserver", Duration: time.Hour}, gen, log.New(io.Discard, "", 0))
	s.BcryptCost = bcrypt.MinCost

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, srv
}

func postForm(t *testing.T, target string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.PostForm(target, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestRegisterLoginProfile(t *testing.T) {
	_, srv := newTestServer(t)

	resp, body := postForm(t, srv.URL+"/register", url.Values{"username": {"ana"}, "password": {"pw-123"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana", body["display_name"])
	assert.NotContains(t, body, "access_token")

	resp, _ = postForm(t, srv.URL+"/register", url.Values{"username": {"ana"}, "password": {"other"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postForm(t, srv.URL+"/login", url.Values{"username": {"ana"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = postForm(t, srv.URL+"/login", url.Values{"username": {"ana"}, "password": {"pw-123"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "bearer", body["token_type"])

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	pr, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer pr.Body.Close()
	require.Equal(t, http.StatusOK, pr.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(pr.Body).Decode(&user))
	assert.Equal(t, "ana", user.Username)
	assert.NotEmpty(t, user.ID.String())
}

func TestProfileRejectsBadTokens(t *testing.T) {
	s, srv := newTestServer(t)

	for _, header := range []string{"", "Bearer not-a-jwt", "Basic abc"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, header)
	}

	// a valid signature for an account that does not exist
	token, _, err := s.Tokens.Sign(&Account{Username: "ghost"})
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesIssuedTokens(t *testing.T) {
	_, srv := newTestServer(t)

	postForm(t, srv.URL+"/register", url.Values{"username": {"ana"}, "password": {"pw"}})
	_, body := postForm(t, srv.URL+"/login", url.Values{"username": {"ana"}, "password": {"pw"}})
	oldToken, _ := body["access_token"].(string)
	require.NotEmpty(t, oldToken)

	call := func(method, path, token string) int {
		req, _ := http.NewRequest(method, srv.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	require.Equal(t, http.StatusOK, call(http.MethodGet, "/profile", oldToken))
	require.Equal(t, http.StatusOK, call(http.MethodPost, "/logout", oldToken))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/profile", oldToken))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodPost, "/logout", oldToken))

	_, body = postForm(t, srv.URL+"/login", url.Values{"username": {"ana"}, "password": {"pw"}})
	newToken, _ := body["access_token"].(string)
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/profile", newToken))
}

func TestTokenOnRegister(t *testing.T) {
	s, srv := newTestServer(t)
	s.TokenOnRegister = true

	_, body := postForm(t, srv.URL+"/register", url.Values{"username": {"bo"}, "password": {"pw"}, "display_name": {"Bo"}})
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Bo", body["display_name"])
}

func TestGenerator_Deterministic(t *testing.T) {
	g := NewGenerator(50, 42)
	g.Now = func() time.Time { return fixedNow }

	a, b := g.Generate(), g.Generate()
	require.Len(t, a, 50)
	assert.Equal(t, a, b)

	for _, inc := range a {
		assert.GreaterOrEqual(t, inc.Latitude.Float(), south)
		assert.LessOrEqual(t, inc.Latitude.Float(), north)
		assert.GreaterOrEqual(t, inc.Severity.Int(), 1)
		assert.LessOrEqual(t, inc.Severity.Int(), 5)
		assert.Contains(t, crimeTypes, inc.CrimeType)
	}
}

func getIncidents(t *testing.T, target string) ([]models.RawIncident, int) {
	t.Helper()
	resp, err := http.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}
	var out []models.RawIncident
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out, resp.StatusCode
}

func TestCrimeEndpoints(t *testing.T) {
	_, srv := newTestServer(t)

	all, status := getIncidents(t, srv.URL+"/crime")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, all, 200)
	assert.Equal(t, models.ShapeSimulated, all[0].Shape())

	filtered, status := getIncidents(t, srv.URL+"/crime/filtered?crime_type=theft&min_severity=4")
	require.Equal(t, http.StatusOK, status)
	for _, inc := range filtered {
		assert.Equal(t, "Theft", inc.Simulated.CrimeType)
		assert.GreaterOrEqual(t, inc.Simulated.Severity.Int(), 4)
	}

	recent, _ := getIncidents(t, srv.URL+"/crime/filtered?days_back=0")
	assert.Less(t, len(recent), len(all))

	_, status = getIncidents(t, srv.URL+"/crime/filtered?min_severity=high")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestCrimeFixture(t *testing.T) {
	s, srv := newTestServer(t)

	path := filepath.Join(t.TempDir(), "mirror.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"ucr_general": 600, "point_x": -75.1, "point_y": 39.9}]`), 0o644))
	s.FixturePath = path

	got, status := getIncidents(t, srv.URL+"/crime")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, got, 1)
	assert.Equal(t, models.ShapeOfficial, got[0].Shape())

	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644))
	_, status = getIncidents(t, srv.URL+"/crime")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestAccountReports(t *testing.T) {
	_, srv := newTestServer(t)
	postForm(t, srv.URL+"/register", url.Values{"username": {"cy"}, "password": {"pw"}})

	post := func(body string) int {
		resp, err := http.Post(srv.URL+"/reports", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusOK, post(`{"username":"cy","type":"Theft","description":"bike","latitude":39.95,"longitude":-75.16,"severity":2,"photos":["a.jpg"]}`))
	assert.Equal(t, http.StatusOK, post(`{"username":"cy","type":"Noise","description":"party"}`))
	assert.Equal(t, http.StatusNotFound, post(`{"username":"ghost","type":"Theft","description":"x"}`))

	resp, err := http.Get(srv.URL + "/reports/cy")
	require.NoError(t, err)
	var sum models.ReportSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	resp.Body.Close()
	assert.Equal(t, models.ReportSummary{Username: "cy", TotalReports: 2}, sum)

	resp, err = http.Get(srv.URL + "/reports/cy/all")
	require.NoError(t, err)
	var list []models.AccountReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 2)
	assert.Equal(t, "Noise", list[0].Type)
	require.NotNil(t, list[1].Latitude)
	assert.Equal(t, "39.95", *list[1].Latitude)
	assert.Equal(t, []string{"a.jpg"}, list[1].Photos)

	resp, err = http.Get(srv.URL + "/reports/ghost")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMemoryRepo(t *testing.T) {
	repo, err := OpenRepo(context.Background(), ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	acct, err := repo.CreateAccount(context.Background(), Account{Username: "dee", DisplayName: "Dee", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, "dee", acct.Username)

	missing, err := repo.GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
