package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultID is used when the caller names no session
	DefaultID = "default"

	// NewKeyword asks for a freshly generated session id
	NewKeyword = "new"
)

// ErrInvalidID is returned for ids that cannot name a single directory
// under the sessions root.
var ErrInvalidID = errors.New("invalid session id")

// NewID returns a random, previously unused session id.
func NewID() string {
	return uuid.NewString()
}

// ResolveID maps the caller's requested session to a concrete id. An empty
// request resolves to DefaultID and "new" to a fresh id.
func ResolveID(requested string) string {
	switch requested {
	case "":
		return DefaultID
	case NewKeyword:
		return NewID()
	default:
		return requested
	}
}

// ValidateID checks that id is a single, non-special path element.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidID)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidID, id)
	}
	return nil
}
