// Package domain contains pure, dependency-free domain models for the
// evaluation network.
package domain

import (
	"time"
)

// WorkerID identifies a single worker on the network within one deployment.
// IDs are opaque to the core; the transport layer decides how they map onto
// addresses.
type WorkerID string

// Round represents one full evaluation cycle: a prompt is dispatched to a
// sampled set of workers, their candidates are collected, scored, and folded
// into reputation. A Round is immutable once its candidates are collected and
// is discarded after scoring; only derived ScoreRecords persist.
type Round struct {
	// RequestID is the opaque identifier attached to every dispatch of this
	// round, e.g. "bt_0194c2...".
	RequestID string

	// Prompt is the text sent to every sampled worker.
	Prompt string

	// Reference is the baseline answer candidates are compared against.
	Reference string

	// Workers holds the sampled worker identifiers, unique within the round.
	Workers []WorkerID

	// CreatedAt records when the round began.
	CreatedAt time.Time
}

// Candidate is one worker's reply within a Round. It is never mutated after
// receipt.
type Candidate struct {
	// Worker identifies which worker produced this candidate.
	Worker WorkerID

	// Output contains the reply text. Nil denotes no reply or a failed reply;
	// an absent candidate scores zero but does not fail the round.
	Output *string

	// Latency is the elapsed time from dispatch to receipt as measured by
	// the evaluator. Meaningless when Output is nil.
	Latency time.Duration
}

// Absent reports whether this candidate carries no usable output.
func (c Candidate) Absent() bool {
	return c.Output == nil || *c.Output == ""
}

// Text returns the candidate output or the empty string when absent.
func (c Candidate) Text() string {
	if c.Output == nil {
		return ""
	}
	return *c.Output
}

// ScoreRecord is the blended incentive outcome for one worker in one round.
// It is produced by the score blender and consumed immediately by the
// reputation updater and the round recorder; the core retains nothing.
type ScoreRecord struct {
	// Worker identifies the scored worker.
	Worker WorkerID

	// Quality is the judge-assigned quality score in [0, 1].
	Quality float64

	// LatencyBonus is the latency-tier contribution after weighting.
	LatencyBonus float64

	// QualityScore is the quality contribution after weighting.
	QualityScore float64

	// Total is the blended incentive value in [0, 100].
	Total float64
}
