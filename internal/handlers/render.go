// File: internal/handlers/render.go
package handlers

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	chatservice "github.com/iyunix/go-converse/internal/services/chat"
)

// markdown leaves raw HTML in message text escaped (goldmark's default).
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

type renderedTurn struct {
	chatservice.TranscriptTurn
	HTML string `json:"html"`
}

type renderedHistory struct {
	*chatservice.ChatHistory
	Transcript []renderedTurn `json:"transcript"`
}

func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderHistory adds an HTML rendering of every transcript turn.
func renderHistory(history *chatservice.ChatHistory) (*renderedHistory, error) {
	out := &renderedHistory{
		ChatHistory: history,
		Transcript:  make([]renderedTurn, 0, len(history.Transcript)),
	}
	for _, turn := range history.Transcript {
		rendered, err := renderMarkdown(turn.Content)
		if err != nil {
			return nil, err
		}
		out.Transcript = append(out.Transcript, renderedTurn{TranscriptTurn: turn, HTML: rendered})
	}
	return out, nil
}
