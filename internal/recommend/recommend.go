// Package recommend picks a model for a prompt by keyword matching.
package recommend

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

type Intent string

const (
	IntentReasoning Intent = "reasoning"
	IntentCoding    Intent = "coding"
	IntentVision    Intent = "vision"
	IntentGeneral   Intent = "general"
)

type bucket struct {
	intent      Intent
	keywords    *regexp.Regexp
	preferences []string
}

// Checked in order; the first bucket whose keywords match wins. Keywords are
// stems anchored at the start of a word only, so "bugs" and "debugging" match.
var buckets = []bucket{
	{
		intent:      IntentReasoning,
		keywords:    regexp.MustCompile(`\b(reason|math|analy[sz]|plan|logic|prove|proof)`),
		preferences: []string{"gpt-5.3", "gpt-5", "o3", "claude"},
	},
	{
		intent: IntentCoding,
		keywords: regexp.MustCompile(
			`\b(cod|debug|typescript|python|api|refactor|bug|error|html|css|js|javascript|function)`,
		),
		preferences: []string{"gpt-5.2", "codex", "claude", "qwen"},
	},
	{
		intent:      IntentVision,
		keywords:    regexp.MustCompile(`\b(image|vision|photo|picture|screenshot)`),
		preferences: []string{"gpt-4o", "vision", "gemini"},
	},
}

var generalPreferences = []string{"gpt-4o-mini", "gpt-4o", "claude", "gemini"}

func Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, b := range buckets {
		if b.keywords.MatchString(lower) {
			return b.intent
		}
	}
	return IntentGeneral
}

// Recommend returns one of candidates, or a nil recommendation when there are
// none.
func Recommend(message string, candidates []string) model.Recommendation {
	candidates = normalize(candidates)
	if len(candidates) == 0 {
		return model.Recommendation{Reason: "No candidate models available."}
	}

	intent := Classify(message)
	if intent != IntentGeneral {
		if picked, ok := firstPreferred(preferencesFor(intent), candidates); ok {
			return recommendation(picked, fmt.Sprintf("Best match for a %s request.", intent))
		}
	}
	if picked, ok := firstPreferred(generalPreferences, candidates); ok {
		return recommendation(picked, "General-purpose default.")
	}
	return recommendation(candidates[0], "No preferred model available; using the first candidate.")
}

func preferencesFor(intent Intent) []string {
	for _, b := range buckets {
		if b.intent == intent {
			return b.preferences
		}
	}
	return nil
}

// firstPreferred walks preferences in order and returns the first candidate
// containing the preference token.
func firstPreferred(preferences, candidates []string) (string, bool) {
	for _, token := range preferences {
		for _, candidate := range candidates {
			if strings.Contains(strings.ToLower(candidate), token) {
				return candidate, true
			}
		}
	}
	return "", false
}

func normalize(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func recommendation(id, reason string) model.Recommendation {
	return model.Recommendation{Recommended: &id, Reason: reason}
}
