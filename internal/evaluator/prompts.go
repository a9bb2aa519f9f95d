package evaluator

import (
	"math/rand/v2"
)

// promptPool is the built-in set of evaluation prompts rounds draw from.
var promptPool = []string{
	"How can I manage my anxiety?",
	"What should I do if I feel overwhelmed at work?",
	"How do I improve my sleep quality?",
	"I'm feeling sad lately, what can help?",
	"How can I build better relationships?",
	"What are some tips for handling stress?",
	"How do I set healthy boundaries?",
	"What can I do to boost my self-esteem?",
	"How do I cope with loneliness?",
	"What are effective ways to relax?",
}

// PickPrompt returns a uniformly random evaluation prompt.
func PickPrompt() string {
	return promptPool[rand.IntN(len(promptPool))]
}

// sampleWorkers picks up to n unique workers uniformly at random, preserving
// no particular order. n <= 0 or n >= len(workers) returns a shuffled copy of
// the whole set.
func sampleWorkers[T any](workers []T, n int) []T {
	out := make([]T, len(workers))
	copy(out, workers)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
