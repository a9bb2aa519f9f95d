package judge

import (
	"context"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// foldCaser is a package-level Unicode case folder; avoids allocating a caser
// per comparison.
var foldCaser = cases.Fold()

// LexicalJudge is a deterministic JudgeOracle that scores candidates by
// normalized Levenshtein similarity to the reference answer. It needs no
// model access, which makes it suitable for air-gapped deployments and
// integration tests. Scores are in [0, 1]; identical text scores 1.
type LexicalJudge struct {
	// CaseSensitive disables Unicode case folding before comparison.
	CaseSensitive bool
}

// Score implements ports.JudgeOracle.
func (l *LexicalJudge) Score(ctx context.Context, prompt, reference string, candidates []string) ([]float64, error) {
	ref := l.prepare(reference)

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[i] = similarity(l.prepare(c), ref)
	}
	return scores, nil
}

func (l *LexicalJudge) prepare(s string) string {
	if l.CaseSensitive {
		return s
	}
	return foldCaser.String(s)
}

// similarity converts edit distance into a [0, 1] score relative to the
// longer string's rune length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if rb := len([]rune(b)); rb > maxLen {
		maxLen = rb
	}
	if maxLen == 0 {
		return 1
	}

	score := 1.0 - float64(distance)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}
