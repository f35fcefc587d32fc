// Package session persists the signed-in user and bearer token across
// restarts behind a small string key-value interface.
package session

import "context"

const (
	UserKey  = "@phillysafe_user"
	TokenKey = "@phillysafe_token"
)

// Store is the persisted key-value collaborator. Get reports ok=false for a
// missing key; Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
