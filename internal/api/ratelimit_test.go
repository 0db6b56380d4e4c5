package api

import (
	"testing"
	"time"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatalf("first two requests should pass")
	}
	if l.Allow("u1") {
		t.Fatalf("third request in window should be rejected")
	}
	if !l.Allow("u2") {
		t.Fatalf("other keys are counted independently")
	}

	// Window rolls over; counter resets.
	now = now.Add(time.Minute)
	if !l.Allow("u1") {
		t.Fatalf("new window should admit u1 again")
	}
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	l := NewRateLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		if !l.Allow("u1") {
			t.Fatalf("limit 0 must not reject")
		}
	}
}
