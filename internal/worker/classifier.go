package worker

import (
	"strings"

	"github.com/tranmanhhung/sn102/internal/domain"
)

// crisisKeywords trigger the crisis override regardless of category.
// Matching is case-insensitive substring search.
var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end it all",
	"not worth living",
	"don't want to live",
	"hurt myself",
	"self harm",
	"cutting",
	"overdose",
}

// categoryKeywords drive topic classification. Iterated in the fixed order of
// domain.Categories(); the first category with any keyword present wins.
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryAnxiety:       {"anxiety", "anxious", "worry", "nervous", "panic", "fear", "worried"},
	domain.CategoryDepression:    {"sad", "depressed", "hopeless", "empty", "worthless", "down", "low"},
	domain.CategoryStress:        {"stress", "overwhelmed", "pressure", "burned out", "exhausted"},
	domain.CategoryRelationships: {"relationship", "partner", "friends", "family", "conflict", "argument"},
	domain.CategorySleep:         {"sleep", "insomnia", "can't sleep", "tired", "rest", "sleeping"},
}

// Classify derives a Classification from a prompt. It is a pure function:
// nothing is persisted and the same prompt always classifies identically.
func Classify(prompt string) domain.Classification {
	lower := strings.ToLower(prompt)

	result := domain.Classification{Category: domain.CategoryGeneral}
	for _, keyword := range crisisKeywords {
		if strings.Contains(lower, keyword) {
			result.Crisis = true
			break
		}
	}

	for _, category := range domain.Categories() {
		if containsAny(lower, categoryKeywords[category]) {
			result.Category = category
			break
		}
	}
	return result
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

// Priority computes the admission priority of an inbound request. It is
// monotonic in the requester's stake and doubled when the prompt classifies
// as a crisis, so urgent prompts preempt normal ones in the dispatch queue.
func Priority(prompt string, requesterStake float64) float64 {
	if requesterStake < 0 {
		requesterStake = 0
	}
	priority := requesterStake
	if Classify(prompt).Crisis {
		priority *= 2
	}
	return priority
}
