// Package stream encodes newline-delimited JSON frames for chat clients.
package stream

import (
	"encoding/json"
	"io"
	"net/http"
)

const (
	TypeMessage    = "message"
	TypeAgentEvent = "agent_event"
	TypeError      = "error"

	RoleAssistant = "assistant"

	ContentType = "application/x-ndjson"
)

// Frame is one line of the chat stream.
type Frame struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Message is a standalone assistant reply not tied to a workflow step.
func Message(content string) Frame {
	return Frame{Type: TypeMessage, Role: RoleAssistant, Content: content}
}

// AgentEvent wraps one workflow step's partial output.
func AgentEvent(data any) Frame {
	return Frame{Type: TypeAgentEvent, Data: data}
}

// Error is the terminal frame of a failed stream.
func Error(err error) Frame {
	return Frame{Type: TypeError, Message: err.Error()}
}

// Writer writes one JSON value per line and flushes after each one when the
// underlying writer supports it.
type Writer struct {
	enc     *json.Encoder
	flusher http.Flusher
}

func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	f, _ := w.(http.Flusher)
	return &Writer{enc: enc, flusher: f}
}

// Write encodes v followed by a newline.
func (w *Writer) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
