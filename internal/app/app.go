// Package app assembles the PhillySafe client from a utils.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"phillysafe/internal/auth"
	"phillysafe/internal/crime"
	"phillysafe/internal/feed"
	"phillysafe/internal/httpclient"
	"phillysafe/internal/reports"
	"phillysafe/internal/session"
	"phillysafe/internal/userdata"
	"phillysafe/pkg/utils"
)

type App struct {
	Config utils.Config
	Logger *log.Logger

	Session *httpclient.Session
	HTTP    *httpclient.Client
	Store   session.Store

	Incidents *crime.Chain
	Crime     *crime.Client
	Reports   *reports.Client
	UserData  *userdata.Client
	Auth      *auth.Manager

	closers []io.Closer
}

// New wires every client around one shared Session and restores the
// persisted login before returning, so the first request already carries
// the bearer token.
func New(ctx context.Context, cfg utils.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	store, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Store: store}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.Session = httpclient.NewSession()
	a.HTTP = httpclient.New(cfg.CrimeBaseURL, a.Session,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		httpclient.WithLogger(logger),
	)

	sources := []crime.Source{
		crime.NewHTTPSource("primary", cfg.CrimeBaseURL, a.HTTP),
		crime.NewHTTPSource("simulated", cfg.SimulatedBaseURL, a.HTTP),
	}
	if cfg.MirrorPath != "" {
		sources = append(sources, crime.NewFileSource(cfg.MirrorPath))
	}
	a.Incidents = crime.NewChain(logger, sources...)

	a.Crime = crime.NewClient(a.HTTP, cfg.SimulatedBaseURL, a.Incidents)
	a.Reports = reports.NewClient(a.HTTP, cfg.AuthBaseURL)
	a.UserData = userdata.NewClient(a.HTTP)

	a.Auth = auth.NewManager(auth.NewClient(a.HTTP, cfg.AuthBaseURL), a.Session, store, logger)
	a.Auth.AutoRegisterOnLogin = cfg.AutoRegisterOnLogin
	if err := a.Auth.Restore(ctx); err != nil {
		logger.Printf("[session] restore failed, starting signed out: %v", err)
	}

	return a, nil
}

// NewFeed returns an incident feed over the fallback chain. The caller
// owns it and should Close it when done.
func (a *App) NewFeed() *feed.Feed {
	return feed.New(a.Incidents, a.Logger)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStore builds the session store named by cfg.SessionStore. The
// closer is nil for stores that hold no resources.
func OpenStore(ctx context.Context, cfg utils.Config) (session.Store, io.Closer, error) {
	switch cfg.SessionStore {
	case "", "file":
		return session.NewFileStore(cfg.SessionPath), nil, nil
	case "memory":
		return session.NewMemoryStore(), nil, nil
	case "sqlite":
		s, err := session.OpenSQLiteStore(ctx, cfg.SessionPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session db: %w", err)
		}
		return s, s, nil
	case "redis":
		s := session.NewRedisStore(cfg.RedisAddr, "phillysafe:")
		if err := s.Client.Ping(ctx).Err(); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
