package sample

import "fmt"

// Status is the lab-side lifecycle of a submitted sample. Unlike bookings the
// chain is strictly linear; a sample never skips or revisits a step.
type Status string

const (
	StatusPending          Status = "pending"
	StatusReceived         Status = "received"
	StatusInAnalysis       Status = "in_analysis"
	StatusAnalysisComplete Status = "analysis_complete"
	StatusReturnRequested  Status = "return_requested"
	StatusReturned         Status = "returned"
)

var chain = []Status{
	StatusPending,
	StatusReceived,
	StatusInAnalysis,
	StatusAnalysisComplete,
	StatusReturnRequested,
	StatusReturned,
}

func ParseStatus(s string) (Status, error) {
	for _, c := range chain {
		if Status(s) == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown sample status: %s", s)
}

// Next returns the only legal successor, or "" for the final step.
func Next(s Status) Status {
	for i, c := range chain {
		if c == s && i+1 < len(chain) {
			return chain[i+1]
		}
	}
	return ""
}

func CanAdvance(from, to Status) bool {
	next := Next(from)
	return next != "" && next == to
}
