// Package crime fetches incident records from the crime-data backends.
package crime

import (
	"context"
	"errors"
	"log"

	"phillysafe/pkg/models"
)

// Source is implemented by each incident backend (live API, simulated API,
// local fixture). A source returns records in whatever shape its backend
// emits; normalization happens later.
type Source interface {
	Name() string
	FetchIncidents(ctx context.Context) ([]models.RawIncident, error)
}

var ErrNoSources = errors.New("crime: no incident sources configured")

// Chain tries its sources in order and returns the first non-empty success.
// When every earlier source fails or comes back empty, the last source's
// answer (list or error) is returned as-is. There is no retry or backoff.
type Chain struct {
	Sources []Source
	Logger  *log.Logger
}

func NewChain(logger *log.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = log.Default()
	}
	return &Chain{Sources: sources, Logger: logger}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) FetchIncidents(ctx context.Context) ([]models.RawIncident, error) {
	if len(c.Sources) == 0 {
		return nil, ErrNoSources
	}

	last := len(c.Sources) - 1
	for i, src := range c.Sources {
		incidents, err := src.FetchIncidents(ctx)
		if i == last {
			if err != nil {
				c.Logger.Printf("[crime] source %s error: %v", src.Name(), err)
			}
			return incidents, err
		}

		switch {
		case err != nil:
			c.Logger.Printf("[crime] source %s error, falling back: %v", src.Name(), err)
		case len(incidents) == 0:
			c.Logger.Printf("[crime] source %s returned no incidents, falling back", src.Name())
		default:
			return incidents, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, ErrNoSources
}
