package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRevocationStore(t *testing.T) {
	s := NewMemoryRevocationStore()
	defer s.Close()
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "unknown")
	if err != nil || revoked {
		t.Fatalf("unknown jti: revoked=%v err=%v", revoked, err)
	}

	if err := s.Revoke(ctx, "jti-1", TokenTypeAccess); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = s.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("revoked jti: revoked=%v err=%v", revoked, err)
	}

	// Revoking twice is fine.
	if err := s.Revoke(ctx, "jti-1", TokenTypeAccess); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("count = %d, want 1", s.Count())
	}
}

func TestMemoryRevocationStoreCleanup(t *testing.T) {
	s := NewMemoryRevocationStore()
	defer s.Close()

	s.RevokeUntil("stale", time.Now().Add(-time.Minute))
	s.RevokeUntil("fresh", time.Now().Add(time.Hour))
	s.cleanup()

	if revoked, _ := s.IsRevoked(context.Background(), "stale"); revoked {
		t.Error("expired entry survived cleanup")
	}
	if revoked, _ := s.IsRevoked(context.Background(), "fresh"); !revoked {
		t.Error("live entry removed by cleanup")
	}
}
