// File: internal/services/chat/normalizer.go
package chat

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	// ErrCodeParseFailure marks model output that could not be read as JSON.
	ErrCodeParseFailure = "PARSE_FAILURE"
	// ErrCodeModelError is used when the model reports an error without a code.
	ErrCodeModelError = "MODEL_ERROR"

	// RawOutputKey holds the unparsed model text in a failed result's metadata.
	RawOutputKey = "raw_model_output"

	maxTitleLength = 100
)

// Response types the frontend knows how to render. Other values pass through.
const (
	ResponseTypeText  = "text"
	ResponseTypeCode  = "code"
	ResponseTypeJSON  = "json"
	ResponseTypeImage = "image"
	ResponseTypeFile  = "file"
	ResponseTypeTable = "table"
	ResponseTypeOther = "other"
)

// ParseOutcome names the path that produced a NormalizedResponse.
type ParseOutcome string

const (
	OutcomeStrict    ParseOutcome = "strict"
	OutcomeExtracted ParseOutcome = "extracted"
	OutcomeFailed    ParseOutcome = "failed"
)

// Action is a frontend action suggested by the model.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ModelError is an error reported by the model or by the normalizer.
type ModelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NormalizedResponse is model output coerced to the response schema. Every
// field is always populated; Error is set instead of ResponseText when the
// output was unusable.
type NormalizedResponse struct {
	ResponseText string         `json:"response_text"`
	ResponseType string         `json:"response_type"`
	ResponseData any            `json:"response_data"`
	Actions      []Action       `json:"actions"`
	ShouldEnd    bool           `json:"should_end"`
	Language     *string        `json:"language"`
	Metadata     map[string]any `json:"metadata"`
	Error        *ModelError    `json:"error"`

	// Title is a suggested chat title, empty when none was offered.
	Title string `json:"title,omitempty"`

	Outcome ParseOutcome `json:"-"`
}

// Normalize converts raw model text into a NormalizedResponse. It never
// fails: text that cannot be parsed yields a PARSE_FAILURE result carrying
// the raw text in Metadata.
func Normalize(raw string) NormalizedResponse {
	if v, ok := decodeDocument(raw); ok {
		return normalizeValue(v, OutcomeStrict)
	}

	for _, brackets := range [...][2]byte{{'{', '}'}, {'[', ']'}} {
		span, ok := balancedSpan(raw, brackets[0], brackets[1])
		if !ok {
			continue
		}
		if v, ok := decodeDocument(span); ok {
			return normalizeValue(v, OutcomeExtracted)
		}
	}

	return NormalizedResponse{
		ResponseType: ResponseTypeText,
		Actions:      []Action{},
		Metadata:     map[string]any{RawOutputKey: raw},
		Error: &ModelError{
			Code:    ErrCodeParseFailure,
			Message: "model output could not be parsed as JSON",
		},
		Outcome: OutcomeFailed,
	}
}

// decodeDocument parses s as exactly one JSON object or array. Numbers are
// kept as json.Number and trailing data is rejected.
func decodeDocument(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		return nil, false
	}
}

func normalizeValue(v any, outcome ParseOutcome) NormalizedResponse {
	obj, ok := v.(map[string]any)
	if !ok {
		// A bare array is data, not an envelope.
		return NormalizedResponse{
			ResponseType: ResponseTypeJSON,
			ResponseData: v,
			Actions:      []Action{},
			Outcome:      outcome,
		}
	}

	out := NormalizedResponse{
		ResponseText: readText(obj["response_text"]),
		ResponseType: ResponseTypeText,
		ResponseData: obj["response_data"],
		Actions:      readActions(obj["actions"]),
		Outcome:      outcome,
	}

	if t, ok := obj["response_type"].(string); ok && t != "" {
		out.ResponseType = t
	}
	if b, ok := obj["should_end"].(bool); ok {
		out.ShouldEnd = b
	}
	if lang, ok := obj["language"].(string); ok {
		out.Language = &lang
	}
	if meta, ok := obj["metadata"].(map[string]any); ok {
		out.Metadata = meta
	}
	out.Error = readError(obj["error"])
	out.Title = readTitle(obj, out.Metadata)

	return out
}

// readText returns strings unchanged and encodes any other non-null value as JSON.
func readText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func readActions(v any) []Action {
	items, ok := v.([]any)
	if !ok {
		return []Action{}
	}

	actions := make([]Action, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		actionType, _ := obj["type"].(string)
		actions = append(actions, Action{Type: actionType, Payload: obj["payload"]})
	}
	return actions
}

func readError(v any) *ModelError {
	switch e := v.(type) {
	case map[string]any:
		code, _ := e["code"].(string)
		if code == "" {
			code = ErrCodeModelError
		}
		message, _ := e["message"].(string)
		return &ModelError{Code: code, Message: message}
	case string:
		if e == "" {
			return nil
		}
		return &ModelError{Code: ErrCodeModelError, Message: e}
	case bool:
		if !e {
			return nil
		}
		return &ModelError{Code: ErrCodeModelError, Message: "model reported an error"}
	default:
		return nil
	}
}

// readTitle prefers a top-level "title" over metadata.title.
func readTitle(obj, meta map[string]any) string {
	title, _ := obj["title"].(string)
	if strings.TrimSpace(title) == "" && meta != nil {
		title, _ = meta["title"].(string)
	}
	return truncateText(cleanWhitespace(title), maxTitleLength)
}
