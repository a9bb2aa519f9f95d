// Package judge provides JudgeOracle implementations: an LLM-as-judge that
// scores candidate responses against a reference answer, and a deterministic
// lexical judge for offline use.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tranmanhhung/sn102/internal/ports"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

const judgeSystemPrompt = "You are a strict and fair judge for peer-support responses."

// scoresResponse is the JSON payload expected from the judge model.
type scoresResponse struct {
	Scores []float64 `json:"scores"`
}

// LLMJudge scores candidates by asking a judge model to compare each one to
// the reference answer. A score of 0.7 means parity with the reference;
// better responses score higher, worse ones lower.
//
// Malformed or unparseable judge output degrades to a zero vector rather than
// an error, so one bad completion never fails a round.
type LLMJudge struct {
	client ports.LLMClient
	log    logger.Logger
	tracer trace.Tracer
}

// NewLLMJudge builds an LLMJudge on top of the given client.
func NewLLMJudge(client ports.LLMClient, log logger.Logger) (*LLMJudge, error) {
	if client == nil {
		return nil, fmt.Errorf("judge LLM client cannot be nil")
	}
	return &LLMJudge{
		client: client,
		log:    log.Named("judge"),
		tracer: otel.Tracer("llm-judge"),
	}, nil
}

// Score implements ports.JudgeOracle. The returned slice is order- and
// length-preserving: scores[i] belongs to candidates[i], clamped to [0, 1].
func (j *LLMJudge) Score(ctx context.Context, prompt, reference string, candidates []string) ([]float64, error) {
	ctx, span := j.tracer.Start(ctx, "LLMJudge.Score",
		trace.WithAttributes(
			attribute.Int("judge.candidates", len(candidates)),
			attribute.String("judge.model", j.client.GetModel()),
		),
	)
	defer span.End()

	if len(candidates) == 0 {
		return nil, nil
	}

	response, err := j.client.Complete(ctx, j.buildPrompt(prompt, reference, candidates), map[string]any{
		"system":          judgeSystemPrompt,
		"temperature":     0.0,
		"response_format": "json_object",
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("judge call: %w", err)
	}

	scores, ok := j.parseScores(response, len(candidates))
	if !ok {
		j.log.Warn(ctx, "unparseable judge response, zero-scoring batch",
			logger.Int("candidates", len(candidates)),
			logger.Int("response_len", len(response)))
		return make([]float64, len(candidates)), nil
	}
	return scores, nil
}

// buildPrompt numbers the candidates and asks for a JSON scores array.
func (j *LLMJudge) buildPrompt(prompt, reference string, candidates []string) string {
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "Responder %d: %s\n", i+1, c)
	}

	return fmt.Sprintf(
		"You are an expert evaluator. Given the following prompt, the base response, "+
			"and a set of peer-support responses, score each response on a scale from 0 to 1. "+
			"A score of 0.7 means the response is as good as the base response. "+
			"Score higher if the response is better, lower if worse. "+
			"Reply in the following format (JSON):\n{\"scores\": [score1, score2, ...]}\n\n"+
			"Prompt: %s\nBase Response: %s\n\nResponses:\n%s\n"+
			"What are the scores for each response? (Output JSON only)",
		prompt, reference, sb.String())
}

// parseScores extracts the scores array and clamps every entry to [0, 1].
// It reports false when the payload is missing, malformed, or the wrong
// length.
func (j *LLMJudge) parseScores(response string, want int) ([]float64, bool) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, false
	}

	var parsed scoresResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, false
	}
	if len(parsed.Scores) != want {
		return nil, false
	}

	scores := make([]float64, want)
	for i, s := range parsed.Scores {
		scores[i] = clamp01(s)
	}
	return scores, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// extractJSON pulls the first complete JSON object out of a response that may
// carry surrounding prose or a markdown code fence.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	braceCount := 0
	inString := false
	escapeNext := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		switch ch {
		case '\\':
			escapeNext = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				braceCount++
			}
		case '}':
			if !inString {
				braceCount--
				if braceCount == 0 {
					return response[start : i+1]
				}
			}
		}
	}
	return ""
}
