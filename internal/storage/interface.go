package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names. Each is persisted as an ordered list of JSON records.
const (
	CollectionUsers     = "users"
	CollectionGames     = "games"
	CollectionUserGames = "userGames"
	CollectionReviews   = "reviews"
)

// Collections lists every collection the catalog persists
var Collections = []string{
	CollectionUsers,
	CollectionGames,
	CollectionUserGames,
	CollectionReviews,
}

// ErrIOFailure marks a durable storage read or write that failed.
// Backend errors are wrapped with it before leaving this package.
var ErrIOFailure = errors.New("storage i/o failure")

// Backend persists whole collections of raw JSON records.
// A collection that was never written loads as empty with no error.
type Backend interface {
	// Load returns every record of the collection in stored order
	Load(ctx context.Context, collection string) ([]json.RawMessage, error)

	// Persist replaces the collection with records. The replacement is
	// all-or-nothing from the point of view of a later Load.
	Persist(ctx context.Context, collection string, records []json.RawMessage) error

	// Close releases any connections held by the backend
	Close() error
}
