// Package feed keeps the normalized incident list observable for a UI:
// the current incidents, whether a fetch is in flight and the last error.
package feed

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"

	"phillysafe/internal/httpclient"
	"phillysafe/internal/normalize"
	"phillysafe/pkg/models"
)

// Fetcher is satisfied by crime.Source and crime.Chain.
type Fetcher interface {
	FetchIncidents(ctx context.Context) ([]models.RawIncident, error)
}

type FetcherFunc func(ctx context.Context) ([]models.RawIncident, error)

func (f FetcherFunc) FetchIncidents(ctx context.Context) ([]models.RawIncident, error) {
	return f(ctx)
}

type State struct {
	Incidents []models.CanonicalIncident
	Loading   bool
	Error     string
}

// Feed spawns no goroutines. Refetch may be called concurrently; each
// result is applied when it resolves, so the last one to finish wins.
// After Close, results still in flight are discarded.
type Feed struct {
	fetcher Fetcher
	logger  *log.Logger

	mu        sync.Mutex
	state     State
	inflight  int
	closed    bool
	listeners map[int]func(State)
	nextID    int
}

// New starts in the loading state with an empty list, the way a screen
// looks before its first fetch returns.
func New(fetcher Fetcher, logger *log.Logger) *Feed {
	if logger == nil {
		logger = log.Default()
	}
	return &Feed{
		fetcher:   fetcher,
		logger:    logger,
		state:     State{Incidents: []models.CanonicalIncident{}, Loading: true},
		listeners: make(map[int]func(State)),
	}
}

// Load is the initial fetch.
func (f *Feed) Load(ctx context.Context) error {
	return f.Refetch(ctx)
}

// Refetch fetches and normalizes the incident list. The error is also
// recorded in State as a display message; previous incidents are kept.
func (f *Feed) Refetch(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.inflight++
	f.state.Loading = true
	notify := f.snapshotLocked()
	f.mu.Unlock()
	notify()

	raws, err := f.fetcher.FetchIncidents(ctx)
	var incidents []models.CanonicalIncident
	if err == nil {
		incidents = normalize.Normalize(raws)
	}

	f.mu.Lock()
	f.inflight--
	if f.closed {
		f.mu.Unlock()
		return err
	}
	if err != nil {
		f.logger.Printf("[feed] fetch failed: %v", err)
		f.state.Error = Message(err)
	} else {
		f.state.Incidents = incidents
		f.state.Error = ""
	}
	f.state.Loading = f.inflight > 0
	notify = f.snapshotLocked()
	f.mu.Unlock()
	notify()

	return err
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyStateLocked()
}

// Subscribe registers fn for every state change and returns a function
// that removes it.
func (f *Feed) Subscribe(fn func(State)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if !f.closed {
		f.listeners[id] = fn
	}
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// Close detaches the feed. It is safe to call more than once.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.listeners = make(map[int]func(State))
	f.mu.Unlock()
}

func (f *Feed) copyStateLocked() State {
	s := f.state
	s.Incidents = slices.Clone(f.state.Incidents)
	return s
}

// snapshotLocked captures the state and listeners; the returned func
// delivers them and must run without f.mu held.
func (f *Feed) snapshotLocked() func() {
	if len(f.listeners) == 0 {
		return func() {}
	}
	s := f.copyStateLocked()
	fns := make([]func(State), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(s)
		}
	}
}

// Message turns a fetch error into text fit for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if httpclient.IsNetwork(err) {
		return "Unable to reach the crime data service. Check your connection and try again."
	}
	switch status := httpclient.StatusCode(err); {
	case status == http.StatusNotFound:
		return "No crime data is available right now."
	case status >= 500:
		return fmt.Sprintf("The crime data service had a problem (status %d). Try again later.", status)
	case status != 0:
		return fmt.Sprintf("The crime data request was rejected (status %d).", status)
	}
	return "Failed to load incidents: " + err.Error()
}
