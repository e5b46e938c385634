// internal/domain/session/session.go
package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Session is the per-browser key/value bag that survives between requests.
// It is passed explicitly to every operation that reads or mutates it.
type Session struct {
	ID     string
	values map[string]json.RawMessage
	dirty  bool
	isNew  bool
}

// New creates an empty session with a fresh id
func New() *Session {
	return newWithID(uuid.New().String(), true)
}

func newWithID(id string, isNew bool) *Session {
	return &Session{
		ID:     id,
		values: make(map[string]json.RawMessage),
		isNew:  isNew,
	}
}

// Get decodes the value stored under key into dest.
// It reports false when the key is absent.
func (s *Session) Get(key string, dest any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("failed to decode session key %q: %w", key, err)
	}
	return true, nil
}

// Set encodes value under key
func (s *Session) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session key %q: %w", key, err)
	}
	s.values[key] = raw
	s.dirty = true
	return nil
}

// Delete removes key; absent keys are ignored
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Has reports whether key is present
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Dirty reports whether the session changed since it was loaded or saved
func (s *Session) Dirty() bool { return s.dirty }

// IsNew reports whether the session was created during this request
func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) encode() ([]byte, error) {
	return json.Marshal(s.values)
}

func decode(id string, data []byte) (*Session, error) {
	s := newWithID(id, false)
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	return s, nil
}
