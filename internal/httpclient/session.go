package httpclient

import "sync"

// Session holds the bearer token attached to outgoing requests.
// Only the auth manager writes it; clients read it on every request.
type Session struct {
	mu    sync.RWMutex
	token string
}

func NewSession() *Session {
	return &Session{}
}

// SetAuthToken installs token; an empty string clears it.
func (s *Session) SetAuthToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) HasToken() bool {
	return s.AuthToken() != ""
}
