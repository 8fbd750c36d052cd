// Package ids generates opaque identifiers for library entities.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a random identifier: a version 4 UUID rendered as 32 lowercase
// hex characters without hyphens.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Valid reports whether id can be used as an entity identifier.
func Valid(id string) bool {
	return id != "" && strings.TrimSpace(id) == id
}
