package booking

import "testing"

func TestCanTransition_LegalPaths(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusDraft, StatusPendingApproval},
		{StatusDraft, StatusPendingUserVerification},
		{StatusPendingUserVerification, StatusPendingApproval},
		{StatusPendingApproval, StatusApproved},
		{StatusPendingApproval, StatusRejected},
		{StatusPendingApproval, StatusRevisionRequested},
		{StatusRevisionRequested, StatusRevisionSubmitted},
		{StatusRevisionSubmitted, StatusApproved},
		{StatusRevisionSubmitted, StatusRevisionRequested},
		{StatusApproved, StatusInProgress},
		{StatusInProgress, StatusCompleted},
		{StatusDraft, StatusCancelled},
		{StatusInProgress, StatusCancelled},
	}
	for _, c := range legal {
		if !CanTransition(c.from, c.to) {
			t.Errorf("expected %s -> %s to be legal", c.from, c.to)
		}
	}
}

func TestCanTransition_IllegalPaths(t *testing.T) {
	illegal := []struct{ from, to Status }{
		{StatusDraft, StatusApproved},
		{StatusDraft, StatusInProgress},
		{StatusApproved, StatusApproved},
		{StatusApproved, StatusPendingApproval},
		{StatusCompleted, StatusInProgress},
		{StatusRejected, StatusPendingApproval},
		{StatusCancelled, StatusDraft},
		{StatusRevisionRequested, StatusApproved},
	}
	for _, c := range illegal {
		if CanTransition(c.from, c.to) {
			t.Errorf("expected %s -> %s to be illegal", c.from, c.to)
		}
	}
}

func TestTerminalStatusesAcceptNothing(t *testing.T) {
	all := []Status{
		StatusDraft, StatusPendingUserVerification, StatusPendingApproval,
		StatusRevisionRequested, StatusRevisionSubmitted, StatusApproved,
		StatusInProgress, StatusCompleted, StatusRejected, StatusCancelled,
	}
	for _, from := range all {
		if !IsTerminal(from) {
			continue
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestNonTerminalStatusesAllCancellable(t *testing.T) {
	for _, s := range NonTerminalStatuses() {
		if !CanTransition(s, StatusCancelled) {
			t.Errorf("non-terminal %s must be cancellable", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("in_progress"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("bogus"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
