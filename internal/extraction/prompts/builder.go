package prompts

import (
	"strings"

	"github.com/yungbote/cvextract/internal/platform/logger"
)

// Messages is the system/user pair sent to the model.
type Messages struct {
	System string
	User   string
}

// BuildCVMessages assembles the extraction messages. systemPrompt may carry a
// user template after the ---USER--- marker; either half falls back to the
// built-in default when missing. Placeholders are replaced literally so the
// JSON braces in the template survive.
func BuildCVMessages(log *logger.Logger, systemPrompt, scoringPrompt, resumeText string) Messages {
	scoring := strings.TrimSpace(scoringPrompt)
	if scoring == "" {
		scoring = defaultScoringInstructions
	}

	system, userTemplate := splitSystemPrompt(systemPrompt)
	if system == "" {
		if log != nil {
			log.Warn("system prompt empty, using built-in default")
		}
		system = defaultSystemMessage
	}
	if userTemplate == "" {
		userTemplate = defaultUserTemplate
	}

	return Messages{
		System: system,
		User:   Fill(userTemplate, map[string]string{"scoring_text": scoring, "resume_text": resumeText}),
	}
}

func splitSystemPrompt(raw string) (system, user string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if !strings.Contains(raw, systemMarker) || !strings.Contains(raw, userMarker) {
		return raw, ""
	}
	_, rest, _ := strings.Cut(raw, systemMarker)
	sys, usr, ok := strings.Cut(rest, userMarker)
	if !ok {
		// ---USER--- appears before ---SYSTEM---
		return raw, ""
	}
	return strings.TrimSpace(sys), strings.TrimSpace(usr)
}

// Fill replaces each {key} in template with its value.
func Fill(template string, values map[string]string) string {
	if len(values) == 0 {
		return template
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
