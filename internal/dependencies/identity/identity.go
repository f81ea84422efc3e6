package identity

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Scheme selects how identifiers are produced
type Scheme string

const (
	// SchemeRandom produces 122-bit random identifiers with no structure
	SchemeRandom Scheme = "random"
	// SchemeSortable produces time-ordered identifiers (timestamp + random)
	SchemeSortable Scheme = "sortable"
)

// Generator produces record identifiers that can be mocked for testing
type Generator interface {
	// NewID returns an identifier that is unique with overwhelming probability
	NewID() string
}

// UUIDGenerator implements Generator using UUIDs rendered as 32 hex characters
type UUIDGenerator struct {
	scheme Scheme
}

// New creates a generator for the given scheme
func New(scheme Scheme) (*UUIDGenerator, error) {
	switch scheme {
	case "":
		scheme = SchemeRandom
	case SchemeRandom, SchemeSortable:
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
	return &UUIDGenerator{scheme: scheme}, nil
}

// NewID returns a fresh identifier
func (g *UUIDGenerator) NewID() string {
	var id uuid.UUID
	if g.scheme == SchemeSortable {
		// NewV7 only fails if the random source fails
		id = uuid.Must(uuid.NewV7())
	} else {
		id = uuid.New()
	}
	return hex.EncodeToString(id[:])
}

// Scheme returns the generator's scheme
func (g *UUIDGenerator) Scheme() Scheme {
	return g.scheme
}
