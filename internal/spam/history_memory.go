package spam

import (
	"context"
	"sync"
	"time"
)

// memoryHistory is the in-process fallback with the same eviction policy as
// the Redis store: at most historyLimit entries per user, whole key expires
// historyTTL after the last write. Expiry is lazy, checked on access.
type memoryHistory struct {
	mu    sync.Mutex
	users map[string]*userHistory
	now   func() time.Time
}

type userHistory struct {
	entries   []Entry
	expiresAt time.Time
}

func newMemoryHistory(now func() time.Time) *memoryHistory {
	if now == nil {
		now = time.Now
	}
	return &memoryHistory{users: make(map[string]*userHistory), now: now}
}

func (s *memoryHistory) Append(_ context.Context, userID, content string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	hist := s.users[userID]
	if hist == nil || !hist.expiresAt.After(now) {
		hist = &userHistory{}
		s.users[userID] = hist
	}

	prior := append([]Entry(nil), hist.entries...)
	hist.entries = append([]Entry{{Content: content, Timestamp: now}}, hist.entries...)
	if len(hist.entries) > historyLimit {
		hist.entries = hist.entries[:historyLimit]
	}
	hist.expiresAt = now.Add(historyTTL)

	return prior, nil
}

func (s *memoryHistory) Read(_ context.Context, userID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist := s.users[userID]
	if hist == nil {
		return nil, nil
	}
	if !hist.expiresAt.After(s.now()) {
		delete(s.users, userID)
		return nil, nil
	}
	return append([]Entry(nil), hist.entries...), nil
}
