package worker

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tranmanhhung/sn102/internal/domain"
)

// Template holds the building blocks of a structured response for one
// category: a validation statement, ranked coping techniques, and a closing
// encouragement line.
type Template struct {
	Validation    string   `yaml:"validation"`
	Techniques    []string `yaml:"techniques"`
	Encouragement string   `yaml:"encouragement"`
}

// TemplateSet maps categories to their templates.
type TemplateSet map[domain.Category]Template

// DefaultTemplates returns the built-in per-category response templates.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		domain.CategoryAnxiety: {
			Validation: "I understand how overwhelming anxiety can feel, and you're not alone in experiencing this.",
			Techniques: []string{
				"Practice the 4-7-8 breathing technique: breathe in for 4, hold for 7, out for 8",
				"Use the 5-4-3-2-1 grounding method: 5 things you see, 4 you touch, 3 you hear, 2 you smell, 1 you taste",
				"Challenge anxious thoughts by asking: 'Is this thought helpful? What evidence supports/contradicts it?'",
			},
			Encouragement: "Remember, anxiety is treatable and you have the strength to work through this step by step.",
		},
		domain.CategoryDepression: {
			Validation: "I hear the heaviness you're carrying, and it takes real courage to reach out for support.",
			Techniques: []string{
				"Start with small, achievable daily goals - even getting dressed or making your bed counts",
				"Practice behavioral activation: schedule one small pleasant activity each day",
				"Connect with one supportive person, even if it's just a brief text or call",
			},
			Encouragement: "Depression tells lies about your worth. You matter, and this feeling won't last forever.",
		},
		domain.CategoryStress: {
			Validation: "Feeling overwhelmed by stress is completely understandable given what you're facing.",
			Techniques: []string{
				"Practice progressive muscle relaxation: tense and release each muscle group for 5 seconds",
				"Break overwhelming tasks into smaller, manageable steps",
				"Set boundaries: it's okay to say no to additional responsibilities right now",
			},
			Encouragement: "You're stronger than you realize, and learning to manage stress is a skill that improves with practice.",
		},
		domain.CategoryRelationships: {
			Validation: "Relationship challenges can feel deeply personal and confusing. Your feelings are valid.",
			Techniques: []string{
				"Practice 'I' statements: 'I feel...' instead of 'You always...'",
				"Listen actively: repeat back what you heard before responding",
				"Take breaks during heated discussions to cool down and reflect",
			},
			Encouragement: "Healthy relationships take work from both people, and you're showing wisdom by seeking guidance.",
		},
		domain.CategorySleep: {
			Validation: "Sleep difficulties can be incredibly frustrating and impact every aspect of your well-being.",
			Techniques: []string{
				"Create a consistent bedtime routine: same time, same calming activities each night",
				"Keep your bedroom cool, dark, and quiet - consider blackout curtains or white noise",
				"Avoid screens 1 hour before bed; try reading or gentle stretching instead",
			},
			Encouragement: "Good sleep hygiene takes time to establish, but your body will thank you for the consistency.",
		},
		domain.CategoryGeneral: {
			Validation: "Thank you for sharing what's on your mind. Your feelings and experiences are important.",
			Techniques: []string{
				"Practice mindfulness: spend 5 minutes focusing on your breath each day",
				"Keep a gratitude journal: write down 3 things you're grateful for daily",
				"Engage in regular physical activity, even a 10-minute walk can boost mood",
			},
			Encouragement: "Taking care of your mental health is an ongoing journey, and every small step matters.",
		},
	}
}

// LoadTemplates reads a YAML template override file. Categories missing from
// the file keep their built-in defaults.
func LoadTemplates(path string) (TemplateSet, error) {
	templates := DefaultTemplates()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}

	var overrides map[domain.Category]Template
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse templates file: %w", err)
	}

	for category, tmpl := range overrides {
		if len(tmpl.Techniques) < 2 {
			return nil, fmt.Errorf("template %q needs at least 2 techniques", category)
		}
		templates[category] = tmpl
	}
	return templates, nil
}

// Render assembles a structured response from the category template: the
// validation statement, the two highest-ranked techniques, and the
// encouragement line.
func (t TemplateSet) Render(category domain.Category) string {
	tmpl, ok := t[category]
	if !ok {
		tmpl = t[domain.CategoryGeneral]
	}

	techniques := tmpl.Techniques
	if len(techniques) > 2 {
		techniques = techniques[:2]
	}

	parts := []string{
		tmpl.Validation,
		"",
		"Here are some evidence-based strategies that can help:",
	}
	for i, technique := range techniques {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, technique))
	}
	parts = append(parts, "", tmpl.Encouragement)
	return strings.Join(parts, "\n")
}
