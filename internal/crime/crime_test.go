package crime

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phillysafe/internal/httpclient"
	"phillysafe/pkg/models"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// fakeCrimeBackend serves a fixed /crime payload and counts hits.
func fakeCrimeBackend(t *testing.T, status int, payload string) (*httptest.Server, *int32) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var hits int32
	r := gin.New()
	r.GET("/crime", func(c *gin.Context) {
		atomic.AddInt32(&hits, 1)
		c.Data(status, "application/json", []byte(payload))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newHTTP(base string) *httpclient.Client {
	return httpclient.New(base, nil, httpclient.WithLogger(quietLogger()))
}

const simulatedPair = `[
	{"latitude": 39.95, "longitude": -75.16, "severity": 2, "crime_type": "Theft"},
	{"latitude": 39.97, "longitude": -75.13, "severity": 4, "crime_type": "Assault"}
]`

func TestChain_EmptyPrimaryFallsBack(t *testing.T) {
	primary, _ := fakeCrimeBackend(t, http.StatusOK, `[]`)
	secondary, _ := fakeCrimeBackend(t, http.StatusOK, simulatedPair)

	hc := newHTTP(primary.URL)
	chain := NewChain(quietLogger(),
		NewHTTPSource("primary", "", hc),
		NewHTTPSource("simulated", secondary.URL, hc),
	)

	got, err := chain.FetchIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Theft", got[0].Simulated.CrimeType)
	assert.Equal(t, "Assault", got[1].Simulated.CrimeType)
}

func TestChain_FailingPrimaryFallsBack(t *testing.T) {
	primary, _ := fakeCrimeBackend(t, http.StatusInternalServerError, `{"detail":"boom"}`)
	secondary, hits := fakeCrimeBackend(t, http.StatusOK, simulatedPair)

	hc := newHTTP(primary.URL)
	chain := NewChain(quietLogger(),
		NewHTTPSource("primary", "", hc),
		NewHTTPSource("simulated", secondary.URL, hc),
	)

	got, err := chain.FetchIncidents(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestChain_PrimaryWithDataSkipsFallback(t *testing.T) {
	primary, _ := fakeCrimeBackend(t, http.StatusOK, `[{"ucr_general": 600, "point_x": -75.1, "point_y": 39.9}]`)
	secondary, hits := fakeCrimeBackend(t, http.StatusOK, simulatedPair)

	hc := newHTTP(primary.URL)
	chain := NewChain(quietLogger(),
		NewHTTPSource("primary", "", hc),
		NewHTTPSource("simulated", secondary.URL, hc),
	)

	got, err := chain.FetchIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ShapeOfficial, got[0].Shape())
	assert.Zero(t, atomic.LoadInt32(hits))
}

type stubSource struct {
	name  string
	items []models.RawIncident
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchIncidents(context.Context) ([]models.RawIncident, error) {
	s.calls++
	return s.items, s.err
}

func TestChain_LastResultReturnedAsIs(t *testing.T) {
	boom := errors.New("secondary down")
	a := &stubSource{name: "a", err: errors.New("primary down")}
	b := &stubSource{name: "b", err: boom}

	_, err := NewChain(quietLogger(), a, b).FetchIncidents(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	empty := &stubSource{name: "c", items: []models.RawIncident{}}
	got, err := NewChain(quietLogger(), &stubSource{name: "a"}, empty).FetchIncidents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChain_NoSources(t *testing.T) {
	_, err := NewChain(nil).FetchIncidents(context.Background())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.json")
	require.NoError(t, os.WriteFile(path, []byte(simulatedPair), 0o644))

	got, err := NewFileSource(path).FetchIncidents(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json")).FetchIncidents(context.Background())
	assert.Error(t, err)
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{MinSeverity: Int(1), MaxSeverity: Int(5), DaysBack: Int(0)}.Validate())

	var verr *httpclient.ValidationError
	assert.ErrorAs(t, Filter{MinSeverity: Int(0)}.Validate(), &verr)
	assert.ErrorAs(t, Filter{MaxSeverity: Int(6)}.Validate(), &verr)
	assert.ErrorAs(t, Filter{MinSeverity: Int(4), MaxSeverity: Int(2)}.Validate(), &verr)
	assert.ErrorAs(t, Filter{DaysBack: Int(-1)}.Validate(), &verr)
	assert.Equal(t, "days_back", verr.Field)
}

func TestGetFilteredIncidents_OnlyPresentParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen []url.Values
	r := gin.New()
	r.GET("/crime/filtered", func(c *gin.Context) {
		seen = append(seen, c.Request.URL.Query())
		c.Data(http.StatusOK, "application/json", []byte(simulatedPair))
	})
	sim := httptest.NewServer(r)
	t.Cleanup(sim.Close)

	primary, _ := fakeCrimeBackend(t, http.StatusOK, `[]`)
	c := NewClient(newHTTP(primary.URL), sim.URL, nil)

	got, err := c.GetFilteredIncidents(context.Background(), Filter{Category: "Theft", MinSeverity: Int(2)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = c.GetFilteredIncidents(context.Background(), Filter{})
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, url.Values{"crime_type": {"Theft"}, "min_severity": {"2"}}, seen[0])
	assert.Empty(t, seen[1])
}

func TestGetFilteredIncidents_InvalidNeverHitsNetwork(t *testing.T) {
	c := NewClient(newHTTP("http://127.0.0.1:1"), "http://127.0.0.1:1", nil)

	_, err := c.GetFilteredIncidents(context.Background(), Filter{MinSeverity: Int(9)})
	var verr *httpclient.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, httpclient.IsNetwork(err))
}

func TestGetAndCreateIncident(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var created models.OfficialIncident
	r := gin.New()
	r.GET("/crime/:id", func(c *gin.Context) {
		if c.Param("id") != "abc" {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Crime not found"})
			return
		}
		c.Data(http.StatusOK, "application/json", []byte(`{"_id": {"$oid": "abc"}, "ucr_general": 300.0}`))
	})
	r.POST("/crime", func(c *gin.Context) {
		if err := c.ShouldBindJSON(&created); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"_id": "new1", "ucr_general": created.UCRGeneral.Float()})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := NewClient(newHTTP(srv.URL), "", nil)

	inc, err := c.GetIncident(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, models.ShapeOfficial, inc.Shape())
	assert.Equal(t, "abc", inc.Official.MongoID.String())

	_, err = c.GetIncident(context.Background(), "nope")
	assert.True(t, httpclient.IsNotFound(err))

	out, err := c.CreateIncident(context.Background(), models.OfficialIncident{UCRGeneral: 600, LocationBlock: "100 BLOCK N 2ND ST"})
	require.NoError(t, err)
	assert.Equal(t, "100 BLOCK N 2ND ST", created.LocationBlock)
	assert.Equal(t, "new1", out.Official.MongoID.String())
}
