package worker

import (
	"strings"
)

// Quality gate parameters. A response passes when at least passThreshold of
// the checks succeed (4 of 5 at 0.7).
const (
	minResponseWords = 50
	maxResponseWords = 250
	passThreshold    = 0.7
)

var (
	empathyMarkers = []string{"understand", "feel", "hear", "sense"}
	actionMarkers  = []string{"try", "practice", "consider", "can", "help"}
	denylist       = []string{"stupid", "crazy", "weird", "dumb"}
)

// QualityChecks is the itemized outcome of gating one response.
type QualityChecks struct {
	Length       bool // word count within [50, 250]
	Empathy      bool // contains an empathy marker word
	Actionable   bool // contains an action-oriented marker word
	Professional bool // contains no denylisted words
	Structure    bool // has at least one complete sentence
}

// Score returns the fraction of checks that passed.
func (q QualityChecks) Score() float64 {
	passed := 0
	for _, ok := range []bool{q.Length, q.Empathy, q.Actionable, q.Professional, q.Structure} {
		if ok {
			passed++
		}
	}
	return float64(passed) / 5
}

// CheckQuality runs the gate's boolean checks against a response.
func CheckQuality(response string) QualityChecks {
	lower := strings.ToLower(response)
	words := len(strings.Fields(response))

	return QualityChecks{
		Length:       words >= minResponseWords && words <= maxResponseWords,
		Empathy:      containsAny(lower, empathyMarkers),
		Actionable:   containsAny(lower, actionMarkers),
		Professional: !containsAny(lower, denylist),
		Structure:    strings.Contains(response, "."),
	}
}

// PassesQualityGate reports whether a response clears the gate. Responses
// shorter than 50 characters are rejected outright.
func PassesQualityGate(response string) bool {
	if len(strings.TrimSpace(response)) < 50 {
		return false
	}
	return CheckQuality(response).Score() >= passThreshold
}
