package session

import (
	"context"
	"sync"
	"time"

	voicebox_errors "voicebox/pkg/errors"
)

type memoryEntry struct {
	sess     Session
	deadline time.Time
}

// MemoryStore keeps sessions in process memory. It is the default store when
// no Redis address is configured; expired entries are dropped lazily on read
// and in bulk by the scheduled sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = memoryEntry{
		sess:     *sess,
		deadline: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, voicebox_errors.ErrSessionExpired
	}
	if s.now().After(entry.deadline) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, voicebox_errors.ErrSessionExpired
	}

	sess := entry.sess
	return &sess, nil
}

func (s *MemoryStore) Touch(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sess.ID]
	if !ok {
		return voicebox_errors.ErrSessionExpired
	}
	sess.LastSeenAt = s.now()
	entry.sess.LastSeenAt = sess.LastSeenAt
	entry.deadline = s.now().Add(s.ttl)
	s.sessions[sess.ID] = entry
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteExpired removes every session past its deadline and returns how many
// were dropped. The server runs this on a schedule.
func (s *MemoryStore) DeleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.sessions {
		if now.After(entry.deadline) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, including any not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
