package spam

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// historyLimit bounds the per-user log; historyTTL expires the whole
	// key after a minute of inactivity.
	historyLimit = 20
	historyTTL   = 60 * time.Second
)

// Entry is one recorded message attempt.
type Entry struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore records recent message attempts per user. Append returns the
// sender's prior entries most-recent-first, excluding the entry just
// written; Read returns the full view without writing.
type HistoryStore interface {
	Append(ctx context.Context, userID, content string) ([]Entry, error)
	Read(ctx context.Context, userID string) ([]Entry, error)
}

// NewHistoryStore returns the Redis-backed store wrapped with an in-process
// fallback, or the fallback alone when no Redis client is configured. Either
// way callers see the same bounded, time-windowed contract; a Redis outage
// costs only history continuity across process restarts.
func NewHistoryStore(rdb *redis.Client, now func() time.Time) HistoryStore {
	mem := newMemoryHistory(now)
	if rdb == nil {
		log.Printf("spam history: redis not configured, using in-memory store")
		return mem
	}
	return &failoverHistory{primary: newRedisHistory(rdb, now), fallback: mem}
}

func historyKey(userID string) string {
	return fmt.Sprintf("chat_history:%s", userID)
}

type redisHistory struct {
	rdb *redis.Client
	now func() time.Time
}

func newRedisHistory(rdb *redis.Client, now func() time.Time) *redisHistory {
	if now == nil {
		now = time.Now
	}
	return &redisHistory{rdb: rdb, now: now}
}

func (s *redisHistory) Append(ctx context.Context, userID, content string) ([]Entry, error) {
	candidate := Entry{Content: content, Timestamp: s.now()}
	raw, err := json.Marshal(candidate)
	if err != nil {
		return nil, err
	}

	key := historyKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, historyLimit-1)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	entries, err := s.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withoutCandidate(entries, candidate), nil
}

// withoutCandidate drops the entry just written from the returned view.
// Another connection of the same user can append between the write and the
// read, so the candidate is matched by value rather than assumed to be the
// head of the list.
func withoutCandidate(entries []Entry, candidate Entry) []Entry {
	for i, entry := range entries {
		if entry.Content == candidate.Content && entry.Timestamp.Equal(candidate.Timestamp) {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return entries
}

func (s *redisHistory) Read(ctx context.Context, userID string) ([]Entry, error) {
	raws, err := s.rdb.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// failoverHistory serves from Redis and degrades to the in-process store when
// Redis is unreachable.
type failoverHistory struct {
	primary  *redisHistory
	fallback *memoryHistory
}

func (s *failoverHistory) Append(ctx context.Context, userID, content string) ([]Entry, error) {
	entries, err := s.primary.Append(ctx, userID, content)
	if err != nil {
		log.Printf("spam history: redis unavailable, using in-memory fallback: %v", err)
		return s.fallback.Append(ctx, userID, content)
	}
	return entries, nil
}

func (s *failoverHistory) Read(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := s.primary.Read(ctx, userID)
	if err != nil {
		return s.fallback.Read(ctx, userID)
	}
	return entries, nil
}
