package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks invalidated credentials by their jti. A revoked
// token is rejected on every later presentation regardless of its remaining
// validity window.
type RevocationStore interface {
	Revoke(ctx context.Context, jti, tokenType string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocationStore keeps revoked JTIs in memory with automatic cleanup
// of entries past their natural expiry. Used in tests and as the dev
// fallback when no database-backed store is wired.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // JTI -> natural expiry
	done    chan struct{}
}

// NewMemoryRevocationStore creates a store and starts a background
// goroutine that cleans up expired entries every 5 minutes.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	s := &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, jti, _ string) error {
	s.RevokeUntil(jti, time.Now().Add(24*time.Hour))
	return nil
}

// RevokeUntil records a revocation that is kept until the token's natural
// expiry; once the token is expired there is no need to keep tracking it.
func (s *MemoryRevocationStore) RevokeUntil(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[jti]
	return ok, nil
}

// Count returns the number of currently revoked tokens.
func (s *MemoryRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the background cleanup goroutine. Safe to call multiple
// times; only the first call has effect.
func (s *MemoryRevocationStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *MemoryRevocationStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryRevocationStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, jti)
		}
	}
}
