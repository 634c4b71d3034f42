package conversation

import (
	"context"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/store"
)

// keyPrefix yields persisted keys of the form conversation:{sessionId}.
const keyPrefix = "conversation"

// DefaultTTL is the sliding expiry refreshed on every write.
const DefaultTTL = time.Hour

// StateStore persists conversation state behind the key-value port with a
// sliding TTL: every save refreshes the expiry.
type StateStore struct {
	typed *store.Typed[State]
	ttl   time.Duration
}

// NewStateStore creates a state store over kv. A non-positive ttl uses
// DefaultTTL.
func NewStateStore(kv store.KeyValue, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StateStore{
		typed: store.NewTyped[State](kv, keyPrefix),
		ttl:   ttl,
	}
}

// Load fetches a conversation by session id. Returns (nil, nil) when the
// session does not exist or has expired.
func (s *StateStore) Load(ctx context.Context, sessionID string) (*State, error) {
	return s.typed.Load(ctx, sessionID)
}

// Save persists the state and refreshes its TTL.
func (s *StateStore) Save(ctx context.Context, state *State) error {
	return s.typed.Save(ctx, state.SessionID, state, s.ttl)
}

// Delete removes the persisted conversation.
func (s *StateStore) Delete(ctx context.Context, sessionID string) error {
	return s.typed.Delete(ctx, sessionID)
}
