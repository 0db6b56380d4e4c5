package sample

import "testing"

func TestChainIsStrictlyLinear(t *testing.T) {
	steps := []struct {
		from, to Status
	}{
		{StatusPending, StatusReceived},
		{StatusReceived, StatusInAnalysis},
		{StatusInAnalysis, StatusAnalysisComplete},
		{StatusAnalysisComplete, StatusReturnRequested},
		{StatusReturnRequested, StatusReturned},
	}
	for _, s := range steps {
		if !CanAdvance(s.from, s.to) {
			t.Errorf("expected %s -> %s to be legal", s.from, s.to)
		}
	}
}

func TestNoSkippingOrReversing(t *testing.T) {
	illegal := []struct {
		from, to Status
	}{
		{StatusPending, StatusInAnalysis},
		{StatusReceived, StatusPending},
		{StatusReturned, StatusPending},
		{StatusInAnalysis, StatusReturned},
		{StatusReturned, StatusReturnRequested},
	}
	for _, s := range illegal {
		if CanAdvance(s.from, s.to) {
			t.Errorf("expected %s -> %s to be illegal", s.from, s.to)
		}
	}
}

func TestNextAtEndOfChain(t *testing.T) {
	if next := Next(StatusReturned); next != "" {
		t.Fatalf("returned should be final, got next %q", next)
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("in_analysis"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("incinerated"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
