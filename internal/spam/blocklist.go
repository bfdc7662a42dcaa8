package spam

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blocklist is the ephemeral mute flag keyed per user. Block refreshes the
// expiry when the user is already blocked; IsBlocked never reports true past
// the duration. Unblock clears the flag early (moderator override).
type Blocklist interface {
	Block(ctx context.Context, userID string, duration time.Duration) error
	IsBlocked(ctx context.Context, userID string) (bool, error)
	Unblock(ctx context.Context, userID string) error
}

// NewBlocklist mirrors NewHistoryStore: Redis with an in-process fallback, or
// the fallback alone when Redis is not configured.
func NewBlocklist(rdb *redis.Client, now func() time.Time) Blocklist {
	mem := newMemoryBlocklist(now)
	if rdb == nil {
		return mem
	}
	return &failoverBlocklist{primary: &redisBlocklist{rdb: rdb}, fallback: mem}
}

func blockKey(userID string) string {
	return fmt.Sprintf("blocked:%s", userID)
}

type redisBlocklist struct {
	rdb *redis.Client
}

func (b *redisBlocklist) Block(ctx context.Context, userID string, duration time.Duration) error {
	return b.rdb.Set(ctx, blockKey(userID), "true", duration).Err()
}

func (b *redisBlocklist) IsBlocked(ctx context.Context, userID string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blockKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (b *redisBlocklist) Unblock(ctx context.Context, userID string) error {
	return b.rdb.Del(ctx, blockKey(userID)).Err()
}

// memoryBlocklist checks expiry lazily on read.
type memoryBlocklist struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func newMemoryBlocklist(now func() time.Time) *memoryBlocklist {
	if now == nil {
		now = time.Now
	}
	return &memoryBlocklist{expires: make(map[string]time.Time), now: now}
}

func (b *memoryBlocklist) Block(_ context.Context, userID string, duration time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expires[userID] = b.now().Add(duration)
	return nil
}

func (b *memoryBlocklist) IsBlocked(_ context.Context, userID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expiry, ok := b.expires[userID]
	if !ok {
		return false, nil
	}
	if !expiry.After(b.now()) {
		delete(b.expires, userID)
		return false, nil
	}
	return true, nil
}

func (b *memoryBlocklist) Unblock(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.expires, userID)
	return nil
}

type failoverBlocklist struct {
	primary  *redisBlocklist
	fallback *memoryBlocklist
}

func (b *failoverBlocklist) Block(ctx context.Context, userID string, duration time.Duration) error {
	if err := b.primary.Block(ctx, userID, duration); err != nil {
		log.Printf("spam blocklist: redis unavailable, using in-memory fallback: %v", err)
		return b.fallback.Block(ctx, userID, duration)
	}
	return nil
}

func (b *failoverBlocklist) IsBlocked(ctx context.Context, userID string) (bool, error) {
	blocked, err := b.primary.IsBlocked(ctx, userID)
	if err != nil {
		return b.fallback.IsBlocked(ctx, userID)
	}
	return blocked, nil
}

func (b *failoverBlocklist) Unblock(ctx context.Context, userID string) error {
	if err := b.primary.Unblock(ctx, userID); err != nil {
		return b.fallback.Unblock(ctx, userID)
	}
	// Clear any fallback residue so a prior degraded-mode block cannot
	// outlive a moderator override.
	return b.fallback.Unblock(ctx, userID)
}
