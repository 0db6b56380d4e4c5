package booking

import (
	"regexp"
	"testing"
	"time"
)

func TestNewReferenceNumber_Format(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ref := NewReferenceNumber(now)

	re := regexp.MustCompile(`^LAB-202609-[0-9A-F]{6}$`)
	if !re.MatchString(ref) {
		t.Fatalf("unexpected reference format: %q", ref)
	}
}

func TestNewReferenceNumber_Entropy(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReferenceNumber(now)
		if seen[ref] {
			t.Fatalf("duplicate reference in small sample: %q", ref)
		}
		seen[ref] = true
	}
}
