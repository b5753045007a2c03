package domain

import (
	"crypto/rand"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ID is the canonical identifier type for persisted entities. IDs are
// lexicographically sortable ULIDs so listings ordered by id follow
// creation order.
type ID string

// NewID mints a fresh entity identifier.
func NewID() ID {
	return ID(ulid.Make().String())
}

// ParseID normalises an externally supplied identifier.
func ParseID(raw string) ID {
	return ID(strings.TrimSpace(raw))
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// String returns the identifier's string form.
func (id ID) String() string { return string(id) }

// Identification is the opaque, stable token attributed to a visitor.
// Guests and authenticated users alike carry one; reservations reference
// their holder by identification rather than by user id so they can
// exist before an account does.
type Identification string

// NewIdentification mints a fresh identification token.
func NewIdentification() Identification {
	return Identification(ulid.MustNew(ulid.Now(), rand.Reader).String())
}

// ParseIdentification normalises an externally supplied token.
func ParseIdentification(raw string) Identification {
	return Identification(strings.TrimSpace(raw))
}

// IsZero reports whether the identification is empty.
func (i Identification) IsZero() bool { return strings.TrimSpace(string(i)) == "" }

// String returns the token's string form.
func (i Identification) String() string { return string(i) }

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)
