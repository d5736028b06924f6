package middleware

import (
	"testing"
	"time"
)

func TestUserRateLimiterBurstThenDeny(t *testing.T) {
	rl := NewUserRateLimiter(6, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("u1") {
			t.Fatalf("attempt %d inside burst denied", i+1)
		}
	}
	if rl.Allow("u1") {
		t.Fatal("attempt past burst allowed")
	}
	// A different user has their own bucket.
	if !rl.Allow("u2") {
		t.Fatal("fresh user denied")
	}
}

func TestUserRateLimiterCleanup(t *testing.T) {
	rl := NewUserRateLimiter(6, 3)
	rl.Allow("u1")
	rl.Allow("u2")
	if rl.Size() != 2 {
		t.Fatalf("size = %d, want 2", rl.Size())
	}
	if removed := rl.Cleanup(time.Hour); removed != 0 {
		t.Fatalf("cleanup removed %d fresh limiters", removed)
	}
	// Everything is older than a zero ttl cutoff.
	time.Sleep(time.Millisecond)
	if removed := rl.Cleanup(0); removed != 2 {
		t.Fatalf("cleanup removed %d, want 2", removed)
	}
	if rl.Size() != 0 {
		t.Fatalf("size = %d after cleanup", rl.Size())
	}
}
