package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. State is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// GetSession returns a copy of the stored session.
func (s *MemoryStore) GetSession(_ context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// SaveCredential sets the credential, keeping LastEventID.
func (s *MemoryStore) SaveCredential(_ context.Context, userID, credential string) error {
	return s.update(userID, func(sess *Session) { sess.Credential = credential })
}

// SaveLastEventID sets the last event id, keeping the credential.
func (s *MemoryStore) SaveLastEventID(_ context.Context, userID, eventID string) error {
	return s.update(userID, func(sess *Session) { sess.LastEventID = eventID })
}

func (s *MemoryStore) update(userID string, apply func(*Session)) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[userID]
	sess.UserID = userID
	apply(&sess)
	sess.UpdatedAt = s.now()
	s.sessions[userID] = sess
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
