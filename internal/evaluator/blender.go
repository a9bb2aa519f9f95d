package evaluator

import (
	"time"

	"github.com/tranmanhhung/sn102/internal/domain"
)

// Blend weights: quality dominates, speed is a secondary incentive.
const (
	qualityWeight = 0.7
	latencyWeight = 0.3

	// bonusQualityFloor gates the latency bonus; a fast garbage answer earns
	// nothing for being fast.
	bonusQualityFloor = 0.2
)

// Latency tiers, evaluator-measured. Slower than the last tier earns no bonus.
var latencyTiers = []struct {
	below time.Duration
	bonus float64
}{
	{10 * time.Second, 100},
	{20 * time.Second, 50},
	{30 * time.Second, 20},
}

// Blend combines a candidate's judged quality and measured latency into one
// incentive record. Totals land in [0, 100]. Absent candidates and zero
// quality blend to zero regardless of latency.
func Blend(c domain.Candidate, quality float64) domain.ScoreRecord {
	rec := domain.ScoreRecord{Worker: c.Worker, Quality: quality}
	if c.Absent() || quality <= 0 {
		return rec
	}

	if quality > bonusQualityFloor {
		for _, tier := range latencyTiers {
			if c.Latency < tier.below {
				rec.LatencyBonus = tier.bonus * latencyWeight
				break
			}
		}
	}

	rec.QualityScore = quality * 100 * qualityWeight
	rec.Total = rec.LatencyBonus + rec.QualityScore
	return rec
}
