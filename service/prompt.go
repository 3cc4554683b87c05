package service

import (
	"strings"

	"akut-backend/models"
)

// GroundingRules is the fixed instruction that opens every grounded prompt
const GroundingRules = "Answer strictly based on the provided steps. " +
	"If information is missing, reply: 'Not in the guidance — call emergency services.' " +
	"Form: 1–3 sentences + 1–3 bullet steps. No speculation."

// PromptInput is everything a grounded prompt is built from
type PromptInput struct {
	Slug     string
	Language string
	Context  string
	Summary  string
	Steps    []models.FlattenedNode
	Question string
}

// Prompt is a system instruction paired with the user's question
type Prompt struct {
	System string
	User   string
}

// Messages returns the prompt as a chat message list
func (p Prompt) Messages() []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: p.System},
		{Role: models.RoleUser, Content: p.User},
	}
}

// BuildPrompt assembles the grounded prompt. Empty optional fields are omitted.
func BuildPrompt(in PromptInput) Prompt {
	var b strings.Builder
	b.WriteString(GroundingRules)
	b.WriteString("\n\nHazard: ")
	b.WriteString(in.Slug)
	b.WriteString(" [")
	b.WriteString(in.Language)
	b.WriteString("]")
	if in.Summary != "" {
		b.WriteString("\nSummary: ")
		b.WriteString(in.Summary)
	}
	if in.Context != "" {
		b.WriteString("\nContext: ")
		b.WriteString(in.Context)
	}
	b.WriteString("\nRelevant steps:\n")
	for i, step := range in.Steps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(step.ID)
		b.WriteString(": ")
		b.WriteString(step.Text)
	}

	return Prompt{System: b.String(), User: in.Question}
}
