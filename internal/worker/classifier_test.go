package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tranmanhhung/sn102/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		prompt       string
		wantCategory domain.Category
		wantCrisis   bool
	}{
		{
			name:         "anxiety keyword",
			prompt:       "How can I manage my anxiety?",
			wantCategory: domain.CategoryAnxiety,
		},
		{
			name:         "depression keyword",
			prompt:       "I'm feeling sad lately, what can help?",
			wantCategory: domain.CategoryDepression,
		},
		{
			name:         "stress keyword",
			prompt:       "I feel overwhelmed at work",
			wantCategory: domain.CategoryStress,
		},
		{
			name:         "relationship keyword",
			prompt:       "My partner and I keep having the same argument",
			wantCategory: domain.CategoryRelationships,
		},
		{
			name:         "sleep keyword",
			prompt:       "I have insomnia every night",
			wantCategory: domain.CategorySleep,
		},
		{
			name:         "no keyword falls back to general",
			prompt:       "What are some good books?",
			wantCategory: domain.CategoryGeneral,
		},
		{
			name:         "crisis flag set",
			prompt:       "I don't want to live anymore",
			wantCategory: domain.CategoryGeneral,
			wantCrisis:   true,
		},
		{
			name:         "crisis with category keyword keeps both",
			prompt:       "I'm so anxious I think about suicide",
			wantCategory: domain.CategoryAnxiety,
			wantCrisis:   true,
		},
		{
			name:         "case insensitive",
			prompt:       "HOW DO I HANDLE STRESS",
			wantCategory: domain.CategoryStress,
		},
		{
			name:         "first category in fixed order wins",
			prompt:       "I'm anxious and can't sleep",
			wantCategory: domain.CategoryAnxiety,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.prompt)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantCrisis, got.Crisis)
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	prompt := "I'm worried about everything"
	first := Classify(prompt)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(prompt))
	}
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 100.0, Priority("tell me about stress", 100))
	assert.Equal(t, 200.0, Priority("I want to kill myself", 100))
	assert.Equal(t, 0.0, Priority("hello", -5), "negative stake clamps to zero")

	// Monotonic in stake.
	assert.Greater(t, Priority("hello", 50), Priority("hello", 10))
}
