// Package store provides the flat string-keyed persistence layer backing
// every repository and the session manager. Two backends implement the KV
// contract: an embedded Badger database (default) and an external Redis
// instance. Key naming is part of the on-disk contract:
//
//	user_<id>          serialized UserProfile
//	report_<id>        serialized Report
//	notification_<id>  serialized Notification
//	token              opaque session token
//	role               session role
//	username           session username
//	token_expiry       epoch-millis string
package store

import (
	"context"

	"ecowatch/api/internal/ecoerr"
)

// ErrStorageFull is returned when a write fails because the backend is out
// of capacity. Callers must see it; it is never swallowed.
var ErrStorageFull = ecoerr.ErrStorageFull

// Session key names shared by the session manager and the reconciliation job.
const (
	KeyToken       = "token"
	KeyRole        = "role"
	KeyUsername    = "username"
	KeyTokenExpiry = "token_expiry"
)

// KV is the store contract. Each call is atomic for the keys it names;
// SetMulti and RemoveMulti apply all-or-nothing where the backend supports
// transactions (Badger) and best-effort pipelined otherwise (Redis).
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMulti(ctx context.Context, pairs map[string]string) error
	Remove(ctx context.Context, key string) error
	RemoveMulti(ctx context.Context, keys []string) error
	// ListKeys returns every key starting with prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
