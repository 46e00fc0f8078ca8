package interpret

import (
	"fmt"
	"strings"
)

const maxQuestionChars = 2000

// PromptInput holds the divination outcome needed to build the LLM prompt.
type PromptInput struct {
	Question  string
	Nickname  string
	Score     int
	Signature string

	Hexagram     string
	ChangingLine int
	Pillars      []string // year, month, day, hour
	Elements     map[string]string
	Phases       []string // trace phases in evaluation order
}

const systemPrompt = `You interpret the output of a deterministic divination engine and produce structured JSON readings.

Respond with valid JSON only. No markdown, no explanation. Schema:
{
  "reading": "2-4 sentences interpreting the hexagram and score for the question.",
  "advice": ["Concrete suggestion", ...],
  "mood": "one of: auspicious, steady, turbulent, inauspicious, veiled"
}

Rules:
- reading: Ground it in the hexagram, changing line and element balance. 2-4 sentences max.
- advice: 0-3 concrete suggestions. Omit if none.
- mood: Classify the overall omen. Exactly one mood.
- Never claim predictive power; frame everything as reflection.`

func buildMessages(input PromptInput) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(input)},
	}
}

func buildUserPrompt(input PromptInput) string {
	var b strings.Builder

	b.WriteString("## Outcome\n")
	b.WriteString(fmt.Sprintf("- Score: %d / 100\n", input.Score))
	b.WriteString(fmt.Sprintf("- Signature: %s\n", input.Signature))
	if input.Hexagram != "" {
		b.WriteString(fmt.Sprintf("- Hexagram: %s (changing line %d)\n", input.Hexagram, input.ChangingLine))
	}

	if len(input.Pillars) == 4 {
		b.WriteString("\n## Four Pillars\n")
		names := []string{"year", "month", "day", "hour"}
		for i, p := range input.Pillars {
			b.WriteString(fmt.Sprintf("- %s: %s\n", names[i], p))
		}
	}

	if len(input.Elements) > 0 {
		b.WriteString("\n## Element Balance\n")
		for _, name := range []string{"wood", "fire", "earth", "metal", "water"} {
			if v, ok := input.Elements[name]; ok {
				b.WriteString(fmt.Sprintf("- %s: %s\n", name, v))
			}
		}
	}

	if len(input.Phases) > 0 {
		b.WriteString("\n## Computation Phases\n")
		b.WriteString(strings.Join(input.Phases, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\n## Question\n")
	b.WriteString(truncate(input.Question, maxQuestionChars))
	if input.Nickname != "" {
		b.WriteString(fmt.Sprintf("\n\nAsked by: %s\n", input.Nickname))
	}

	return b.String()
}

func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	truncated := text[:maxChars]
	if idx := strings.LastIndex(truncated, "\n"); idx > maxChars/2 {
		truncated = truncated[:idx]
	}
	return truncated + "\n[...truncated]"
}
