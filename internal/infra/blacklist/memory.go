// Package blacklist provides an in-memory implementation of the token blacklist.
package blacklist

import (
	"container/heap"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopauth/config"
	"shopauth/internal/domain/service"
)

// defaultCapacity bounds the store when no capacity is configured.
const defaultCapacity = 100_000

// entry is one denied token. Tokens are keyed by their sha256 digest so the
// store never holds raw credentials.
type entry struct {
	key       string
	expiresAt time.Time
	index     int
}

// expiryHeap orders entries by nearest expiry so capacity eviction drops the
// entry that would have lapsed soonest anyway.
type expiryHeap []*entry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *expiryHeap) Push(x any)         { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// memoryBlacklist is a concrete implementation of the TokenBlacklist interface.
// Individual revocations live in a digest-keyed map; blanket revocations are a
// single timestamp per user, so revoking all of a user's tokens is O(1).
type memoryBlacklist struct {
	mu        sync.RWMutex
	capacity  int
	markerTTL time.Duration
	entries   map[string]*entry
	heap      expiryHeap
	users     map[uuid.UUID]time.Time
}

// NewMemoryBlacklist is the constructor for memoryBlacklist.
func NewMemoryBlacklist(cfg *config.Config) service.TokenBlacklist {
	capacity := defaultCapacity
	markerTTL := time.Hour
	if cfg.Auth != nil {
		if cfg.Auth.BlacklistCapacity > 0 {
			capacity = cfg.Auth.BlacklistCapacity
		}
		if cfg.Auth.AccessTokenTTL > 0 {
			markerTTL = cfg.Auth.AccessTokenTTL
		}
	}
	return &memoryBlacklist{
		capacity:  capacity,
		markerTTL: markerTTL,
		entries:   make(map[string]*entry),
		users:     make(map[uuid.UUID]time.Time),
	}
}

// Revoke denies a single access token for the given duration.
func (b *memoryBlacklist) Revoke(token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	key := digest(token)
	expiresAt := time.Now().Add(ttl)

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[key]; ok {
		if expiresAt.After(existing.expiresAt) {
			existing.expiresAt = expiresAt
			heap.Fix(&b.heap, existing.index)
		}
		return
	}

	// At capacity, drop the entry closest to natural expiry.
	if len(b.entries) >= b.capacity {
		evicted := heap.Pop(&b.heap).(*entry)
		delete(b.entries, evicted.key)
	}

	e := &entry{key: key, expiresAt: expiresAt}
	heap.Push(&b.heap, e)
	b.entries[key] = e
}

// IsRevoked reports whether a token has been individually denied.
func (b *memoryBlacklist) IsRevoked(token string) bool {
	key := digest(token)

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[key]
	return ok && time.Now().Before(e.expiresAt)
}

// RevokeAllForUser denies every access token issued to the user before now.
func (b *memoryBlacklist) RevokeAllForUser(userID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users[userID] = time.Now()
}

// IsUserRevoked reports whether tokens issued to the user at issuedAt fall
// under a blanket revocation.
func (b *memoryBlacklist) IsUserRevoked(userID uuid.UUID, issuedAt time.Time) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	revokedAt, ok := b.users[userID]
	if !ok {
		return false
	}
	return !issuedAt.After(revokedAt)
}

// SweepExpired drops lapsed token entries and stale user markers.
func (b *memoryBlacklist) SweepExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	removed := 0
	for b.heap.Len() > 0 && !now.Before(b.heap[0].expiresAt) {
		e := heap.Pop(&b.heap).(*entry)
		delete(b.entries, e.key)
		removed++
	}

	// A user marker older than any live access token can no longer match anything.
	for userID, revokedAt := range b.users {
		if now.Sub(revokedAt) > b.markerTTL {
			delete(b.users, userID)
			removed++
		}
	}

	return removed
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
