package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"phillysafe/internal/httpclient"
	"phillysafe/internal/session"
	"phillysafe/pkg/models"
)

type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Manager is the only writer of the shared httpclient.Session token. It
// persists the signed-in user and token to Store so Restore can pick them
// up on the next start.
type Manager struct {
	Client  *Client
	Session *httpclient.Session
	Store   session.Store
	Logger  *log.Logger

	// AutoRegisterOnLogin registers unknown accounts on a 401/404 login
	// answer and retries the login once.
	AutoRegisterOnLogin bool

	now func() time.Time

	mu    sync.RWMutex
	state State
	user  *models.User
}

func NewManager(client *Client, sess *httpclient.Session, store session.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if store == nil {
		store = session.NewMemoryStore()
	}
	return &Manager{
		Client:  client,
		Session: sess,
		Store:   store,
		Logger:  logger,
		now:     time.Now,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Restore reads the persisted session. A token whose exp has passed is
// discarded together with its user. Read failures leave the manager
// anonymous and are returned.
func (m *Manager) Restore(ctx context.Context) error {
	token, hasToken, err := m.Store.Get(ctx, session.TokenKey)
	if err != nil {
		m.signOut()
		return fmt.Errorf("restore token: %w", err)
	}
	rawUser, hasUser, err := m.Store.Get(ctx, session.UserKey)
	if err != nil {
		m.signOut()
		return fmt.Errorf("restore user: %w", err)
	}

	if hasToken && TokenExpired(token, m.now()) {
		m.Logger.Printf("[session] stored token expired, clearing")
		m.removePersisted(ctx)
		m.signOut()
		return nil
	}

	// a token is only installed together with the user it belongs to
	if !hasUser {
		m.signOut()
		return nil
	}
	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.Logger.Printf("[session] stored user unreadable: %v", err)
		m.signOut()
		return nil
	}

	m.Session.SetAuthToken(token)
	m.mu.Lock()
	m.user = &user
	m.state = StateAuthenticated
	m.mu.Unlock()
	return nil
}

// Login signs in, installs the token and resolves the profile. On failure
// the previous session, if any, is left in place.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	prev := m.Session.AuthToken()
	m.Session.SetAuthToken("")

	tok, err := m.Client.Login(ctx, username, password)
	if err != nil && m.AutoRegisterOnLogin && isUnknownAccount(err) {
		m.Logger.Printf("[auth] login for %s rejected, registering", username)
		if _, regErr := m.Client.Register(ctx, RegisterRequest{
			Username:    username,
			Password:    password,
			DisplayName: username,
		}); regErr != nil {
			m.Logger.Printf("[auth] auto-register for %s failed: %v", username, regErr)
			m.Session.SetAuthToken(prev)
			return nil, err
		}
		tok, err = m.Client.Login(ctx, username, password)
	}
	if err != nil {
		m.Session.SetAuthToken(prev)
		return nil, err
	}

	m.Session.SetAuthToken(tok.AccessToken)
	user, err := m.Client.Profile(ctx)
	if err != nil {
		m.Session.SetAuthToken(prev)
		return nil, fmt.Errorf("load profile: %w", err)
	}

	m.establish(ctx, user, tok.AccessToken)
	return m.User(), nil
}

// Register creates the account and signs in. When the service issues no
// token, one login is attempted; if that fails the manager still becomes
// authenticated with the new user and no token.
func (m *Manager) Register(ctx context.Context, username, password, displayName string) (*models.User, error) {
	prev := m.Session.AuthToken()
	m.Session.SetAuthToken("")

	res, err := m.Client.Register(ctx, RegisterRequest{
		Username:    username,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		m.Session.SetAuthToken(prev)
		return nil, err
	}

	token := res.Token
	if token == "" {
		tok, err := m.Client.Login(ctx, username, password)
		if err != nil {
			m.Logger.Printf("[auth] login after register for %s failed, continuing without token: %v", username, err)
		} else {
			token = tok.AccessToken
		}
	}

	m.Session.SetAuthToken(token)
	m.establish(ctx, res.User, token)
	return m.User(), nil
}

// Logout clears the in-memory session first, then the persisted keys.
// Store failures are returned but never leave a token in memory.
func (m *Manager) Logout(ctx context.Context) error {
	m.signOut()
	return m.removePersisted(ctx)
}

func (m *Manager) establish(ctx context.Context, user models.User, token string) {
	m.mu.Lock()
	m.user = &user
	m.state = StateAuthenticated
	m.mu.Unlock()

	b, err := json.Marshal(user)
	if err != nil {
		m.Logger.Printf("[session] encode user: %v", err)
		return
	}
	if err := m.Store.Set(ctx, session.UserKey, string(b)); err != nil {
		m.Logger.Printf("[session] persist user: %v", err)
	}
	if token == "" {
		if err := m.Store.Remove(ctx, session.TokenKey); err != nil {
			m.Logger.Printf("[session] clear token: %v", err)
		}
		return
	}
	if err := m.Store.Set(ctx, session.TokenKey, token); err != nil {
		m.Logger.Printf("[session] persist token: %v", err)
	}
}

func (m *Manager) signOut() {
	m.Session.SetAuthToken("")
	m.mu.Lock()
	m.user = nil
	m.state = StateAnonymous
	m.mu.Unlock()
}

func (m *Manager) removePersisted(ctx context.Context) error {
	var errs []error
	for _, key := range []string{session.UserKey, session.TokenKey} {
		if err := m.Store.Remove(ctx, key); err != nil {
			m.Logger.Printf("[session] remove %s: %v", key, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isUnknownAccount(err error) bool {
	switch httpclient.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusNotFound:
		return true
	}
	return false
}
