package feed

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phillysafe/internal/httpclient"
	"phillysafe/pkg/models"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

type reply struct {
	items []models.RawIncident
	err   error
}

// gatedFetcher hands each call's reply channel to the test, which decides
// when and with what the call returns.
func gatedFetcher() (Fetcher, chan chan reply) {
	calls := make(chan chan reply, 8)
	return FetcherFunc(func(ctx context.Context) ([]models.RawIncident, error) {
		ch := make(chan reply)
		calls <- ch
		r := <-ch
		return r.items, r.err
	}), calls
}

func incidents(types ...string) []models.RawIncident {
	out := make([]models.RawIncident, 0, len(types))
	for i, typ := range types {
		out = append(out, models.NewSimulated(models.SimulatedIncident{
			Latitude:  models.Number(39.9 + float64(i)/100),
			Longitude: -75.1,
			Severity:  3,
			CrimeType: typ,
			Date:      "2025-01-01",
		}))
	}
	return out
}

func staticFetcher(items []models.RawIncident, err error) Fetcher {
	return FetcherFunc(func(context.Context) ([]models.RawIncident, error) { return items, err })
}

func TestNew_StartsLoading(t *testing.T) {
	f := New(staticFetcher(nil, nil), quietLogger())
	s := f.State()
	assert.True(t, s.Loading)
	assert.NotNil(t, s.Incidents)
	assert.Empty(t, s.Incidents)
}

func TestLoad_NormalizesAndClearsLoading(t *testing.T) {
	f := New(staticFetcher(incidents("Theft", "Assault"), nil), quietLogger())
	require.NoError(t, f.Load(context.Background()))

	s := f.State()
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	require.Len(t, s.Incidents, 2)
	assert.Equal(t, models.CategoryProperty, s.Incidents[0].Category)
	assert.Equal(t, models.CategoryViolent, s.Incidents[1].Category)
}

func TestRefetch_FailureKeepsIncidents(t *testing.T) {
	var fail bool
	f := New(FetcherFunc(func(context.Context) ([]models.RawIncident, error) {
		if fail {
			return nil, &httpclient.NetworkError{Method: "GET", URL: "http://x/crime", Err: errors.New("connection refused")}
		}
		return incidents("Theft"), nil
	}), quietLogger())

	require.NoError(t, f.Load(context.Background()))
	fail = true
	require.Error(t, f.Refetch(context.Background()))

	s := f.State()
	assert.False(t, s.Loading)
	assert.Len(t, s.Incidents, 1)
	assert.Contains(t, s.Error, "Unable to reach")

	fail = false
	require.NoError(t, f.Refetch(context.Background()))
	assert.Empty(t, f.State().Error)
}

func TestRefetch_LastToResolveWins(t *testing.T) {
	fetcher, calls := gatedFetcher()
	f := New(fetcher, quietLogger())

	done := make(chan error, 2)
	go func() { done <- f.Refetch(context.Background()) }()
	first := <-calls
	go func() { done <- f.Refetch(context.Background()) }()
	second := <-calls

	// the later request resolves first
	second <- reply{items: incidents("Theft", "Fraud")}
	require.NoError(t, <-done)

	s := f.State()
	assert.True(t, s.Loading, "first request still in flight")
	assert.Len(t, s.Incidents, 2)

	first <- reply{items: incidents("Vandalism")}
	require.NoError(t, <-done)

	s = f.State()
	assert.False(t, s.Loading)
	require.Len(t, s.Incidents, 1)
	assert.Equal(t, "Vandalism", s.Incidents[0].Type)
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	fetcher, calls := gatedFetcher()
	f := New(fetcher, quietLogger())

	var mu sync.Mutex
	var seen []State
	f.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- f.Refetch(context.Background()) }()
	pending := <-calls

	f.Close()
	pending <- reply{items: incidents("Theft")}
	require.NoError(t, <-done)

	assert.Empty(t, f.State().Incidents)

	mu.Lock()
	defer mu.Unlock()
	// only the loading notification from before Close
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Loading)

	// a closed feed no longer fetches
	require.NoError(t, f.Refetch(context.Background()))
	assert.Empty(t, calls)
}

func TestSubscribe(t *testing.T) {
	f := New(staticFetcher(incidents("Theft"), nil), quietLogger())

	var states []State
	unsubscribe := f.Subscribe(func(s State) { states = append(states, s) })

	require.NoError(t, f.Load(context.Background()))
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
	assert.Len(t, states[1].Incidents, 1)

	unsubscribe()
	require.NoError(t, f.Refetch(context.Background()))
	assert.Len(t, states, 2)
}

func TestStateIsACopy(t *testing.T) {
	f := New(staticFetcher(incidents("Theft"), nil), quietLogger())
	require.NoError(t, f.Load(context.Background()))

	s := f.State()
	s.Incidents[0].Type = "changed"
	assert.Equal(t, "Theft", f.State().Incidents[0].Type)
}

func TestMessage(t *testing.T) {
	assert.Empty(t, Message(nil))
	assert.Contains(t, Message(&httpclient.HTTPError{Status: 503}), "status 503")
	assert.Contains(t, Message(&httpclient.HTTPError{Status: 404}), "No crime data")
	assert.Contains(t, Message(&httpclient.HTTPError{Status: 400}), "rejected")
	assert.Contains(t, Message(errors.New("bad json")), "bad json")
}
