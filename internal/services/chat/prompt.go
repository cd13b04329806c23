// File: internal/services/chat/prompt.go
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/iyunix/go-converse/internal/services/ai"
)

// DefaultHistoryLimit is the transcript window used when none is configured.
const DefaultHistoryLimit = 60

// ResponseSchemaVersion identifies the response contract embedded in prompts.
const ResponseSchemaVersion = "2024-06"

const responseSchema = `Schema version ` + ResponseSchemaVersion + ` (exact keys):
{
  "response_text": string,
  "response_type": "text" | "code" | "json" | "image" | "file" | "table" | "other",
  "response_data": any | null,
  "actions": [ { "type": string, "payload": any } ],
  "should_end": boolean,
  "language": string | null,
  "metadata": { "title": string, ... } | null,
  "error": null | { "code": string, "message": string }
}

Rules:
- Return ONLY one valid JSON object with the keys above. No prose, no markdown fences.
- For code, put the code in "response_text" as a literal multi-line string.
  Do not escape the line breaks yourself.
- If you cannot fulfil the request, do not refuse in prose. Return the object
  with "error" set and "response_text" empty.
- Suggest a short conversation title in "metadata.title".`

// PromptOptions controls prompt construction and the generation request.
type PromptOptions struct {
	Model        string
	Temperature  float32
	MaxTokens    int
	HistoryLimit int
}

// GenerateOptions converts the generation part of the options for the gateway.
func (o PromptOptions) GenerateOptions() ai.GenerateOptions {
	temperature := o.Temperature
	return ai.GenerateOptions{
		Model:       o.Model,
		Temperature: &temperature,
		MaxTokens:   o.MaxTokens,
	}
}

// BuildPrompt renders the model request for userText. Only the last
// HistoryLimit transcript turns are included, oldest first. The output
// depends on nothing but its arguments.
func BuildPrompt(userText string, transcript []TranscriptTurn, opts PromptOptions) string {
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(transcript) > limit {
		transcript = transcript[len(transcript)-limit:]
	}

	var b strings.Builder
	b.WriteString("You are an assistant that answers with structured JSON for a web frontend.\n")
	b.WriteString("Treat USER REQUEST as the current request and use the conversation history as context.\n\n")

	b.WriteString("RESPONSE SCHEMA:\n")
	b.WriteString(responseSchema)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "CONVERSATION HISTORY (most recent %d turns at most):\n", limit)
	if len(transcript) == 0 {
		b.WriteString("(no history)\n")
	}
	for i, turn := range transcript {
		fmt.Fprintf(&b, "%d. [%s]", i+1, turn.Role)
		if !turn.CreatedAt.IsZero() {
			fmt.Fprintf(&b, " (%s)", turn.CreatedAt.UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(&b, ": %s", turn.Content)
		writeAttachments(&b, turn)
		b.WriteString("\n")
	}

	b.WriteString("\nUSER REQUEST:\n")
	b.WriteString(userText)
	b.WriteString("\n")
	return b.String()
}

func writeAttachments(b *strings.Builder, turn TranscriptTurn) {
	if len(turn.Attachments) == 0 {
		return
	}
	b.WriteString(" [attachments:")
	for i, a := range turn.Attachments {
		if i > 0 {
			b.WriteString(",")
		}
		name := a.Filename
		if name == "" {
			name = a.URL
		}
		fmt.Fprintf(b, " %s", name)
		if a.MimeType != "" {
			fmt.Fprintf(b, " (%s)", a.MimeType)
		}
	}
	b.WriteString("]")
}
