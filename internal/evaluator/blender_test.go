package evaluator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tranmanhhung/sn102/internal/domain"
)

func TestBlend(t *testing.T) {
	text := "a response"

	tests := []struct {
		name      string
		candidate domain.Candidate
		quality   float64
		wantBonus float64
		wantTotal float64
	}{
		{
			name:      "fast high quality",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: 5 * time.Second},
			quality:   0.5,
			wantBonus: 30,
			wantTotal: 65,
		},
		{
			name:      "fast but low quality earns no bonus",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: 5 * time.Second},
			quality:   0.1,
			wantBonus: 0,
			wantTotal: 7,
		},
		{
			name:      "zero quality blends to zero",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: time.Second},
			quality:   0,
			wantBonus: 0,
			wantTotal: 0,
		},
		{
			name:      "absent candidate blends to zero",
			candidate: domain.Candidate{Worker: "w", Latency: time.Second},
			quality:   0.9,
			wantBonus: 0,
			wantTotal: 0,
		},
		{
			name:      "second tier",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: 15 * time.Second},
			quality:   0.5,
			wantBonus: 15,
			wantTotal: 50,
		},
		{
			name:      "third tier",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: 25 * time.Second},
			quality:   0.3,
			wantBonus: 6,
			wantTotal: 27,
		},
		{
			name:      "too slow for any bonus",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: 35 * time.Second},
			quality:   0.5,
			wantBonus: 0,
			wantTotal: 35,
		},
		{
			name:      "tier boundary is exclusive",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: 10 * time.Second},
			quality:   0.5,
			wantBonus: 15,
			wantTotal: 50,
		},
		{
			name:      "near perfect and fast",
			candidate: domain.Candidate{Worker: "w", Output: &text, Latency: 8 * time.Second},
			quality:   0.9,
			wantBonus: 30,
			wantTotal: 93,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Blend(tt.candidate, tt.quality)

			assert.Equal(t, tt.candidate.Worker, rec.Worker)
			assert.Equal(t, tt.quality, rec.Quality)
			assert.InDelta(t, tt.wantBonus, rec.LatencyBonus, 1e-9)
			assert.InDelta(t, tt.wantTotal, rec.Total, 1e-9)
		})
	}
}

func TestBlendTotalIsBounded(t *testing.T) {
	text := "t"
	for _, quality := range []float64{0, 0.2, 0.5, 0.99, 1} {
		rec := Blend(domain.Candidate{Worker: "w", Output: &text, Latency: time.Second}, quality)
		assert.GreaterOrEqual(t, rec.Total, 0.0)
		assert.LessOrEqual(t, rec.Total, 100.0)
	}
}
