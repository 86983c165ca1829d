package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrUnknownReference is returned when a token is absent from the most
// recently saved reference table.
var ErrUnknownReference = errors.New("unknown reference")

// RefTable maps snapshot tokens ("@e1", "@e2", ...) to CSS locators.
type RefTable map[string]string

// LoadRefs returns the reference table saved for id, or an empty table if
// none has been saved.
func (s *Store) LoadRefs(id string) (RefTable, error) {
	path, err := s.RefsPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RefTable{}, nil
		}
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}

	refs := RefTable{}
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("failed to decode reference table: %w", err)
	}
	return refs, nil
}

// SaveRefs replaces the reference table for id.
func (s *Store) SaveRefs(id string, refs RefTable) error {
	if _, err := s.Ensure(id); err != nil {
		return err
	}
	path, err := s.RefsPath(id)
	if err != nil {
		return err
	}

	if refs == nil {
		refs = RefTable{}
	}
	data, err := json.MarshalIndent(refs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reference table: %w", err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write reference table: %w", err)
	}
	s.log.Debugf("saved %d refs for session %s", len(refs), id)
	return nil
}

// Resolve returns the locator saved under token for id.
func (s *Store) Resolve(id, token string) (string, error) {
	refs, err := s.LoadRefs(id)
	if err != nil {
		return "", err
	}
	locator, ok := refs[token]
	if !ok || locator == "" {
		return "", &UnknownReferenceError{Token: token}
	}
	return locator, nil
}

// UnknownReferenceError names the token that failed to resolve.
type UnknownReferenceError struct {
	Token string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("Unknown ref: %s", e.Token)
}

// Unwrap lets errors.Is match ErrUnknownReference.
func (e *UnknownReferenceError) Unwrap() error {
	return ErrUnknownReference
}
