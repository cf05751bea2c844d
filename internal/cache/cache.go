// Package cache defines the device-local storage used by the client: item
// snapshots mirrored from successful fetches and saves, and a small settings
// table for the session token and the photo index.
//
// Snapshots are keyed by item identifier and overwritten on every write.
// Nothing is ever evicted. The cache is a mirror, not a source of truth: the
// sync core never reads it back, only the view does when it has to show
// something before the first fetch succeeds.
package cache

import (
	"context"

	"github.com/soniadragulescu/beerstore/internal/beer"
)

// Setting keys shared by the session and photo packages.
const (
	KeyToken  = "token"
	KeyPhotos = "photos"
)

// Snapshots persists item snapshots.
type Snapshots interface {
	Put(ctx context.Context, key string, item beer.Item) error
	All(ctx context.Context) ([]beer.Item, error)
}

// Settings is a string key/value table.
type Settings interface {
	// GetSetting returns ok=false when the key has never been set.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Store is a full cache backend.
type Store interface {
	Snapshots
	Settings
	Close() error
}
