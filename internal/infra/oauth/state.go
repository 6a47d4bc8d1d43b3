package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"briefly/internal/domain/service"
	"briefly/internal/errors"

	"github.com/google/uuid"
)

// stateTTL bounds how long a started authorization flow may dangle before the
// callback arrives.
const stateTTL = 10 * time.Minute

type stateEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type stateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	now     func() time.Time
}

// NewStateStore creates an in-memory single-use state store for the
// authorization flow. State lives in process memory, so a flow must complete
// against the instance that started it.
func NewStateStore() service.OAuthStateStore {
	return &stateStore{
		entries: make(map[string]stateEntry),
		now:     time.Now,
	}
}

// Issue creates a new unguessable state bound to the user.
func (s *stateStore) Issue(userID uuid.UUID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "failed to generate oauth state")
	}
	state := base64.RawURLEncoding.EncodeToString(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	s.entries[state] = stateEntry{
		userID:    userID,
		expiresAt: s.now().Add(stateTTL),
	}

	return state, nil
}

// Consume redeems a state exactly once.
func (s *stateStore) Consume(state string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[state]
	if !ok {
		return uuid.Nil, false
	}
	delete(s.entries, state)

	if s.now().After(entry.expiresAt) {
		return uuid.Nil, false
	}

	return entry.userID, true
}

// pruneLocked drops expired entries. Called under the lock on every Issue so
// abandoned flows don't accumulate.
func (s *stateStore) pruneLocked() {
	now := s.now()
	for state, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, state)
		}
	}
}
