package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeRun      EventType = "run"
	EventTypeStep     EventType = "step"
	EventTypeSearch   EventType = "search"
	EventTypeLLM      EventType = "llm"
	EventTypeCritique EventType = "critique"
	EventTypeIntent   EventType = "intent"
	EventTypeHTTP     EventType = "http"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Step      string    `json:"step,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type runIDKey struct{}

// WithRunID tags ctx with the workflow run identifier used in log events.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run identifier stored in ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Logger handles structured logging. A nil *Logger discards everything.
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

func NewLogger(llmLogPath string) *Logger {
	return NewLoggerWithOutput(os.Stdout, llmLogPath)
}

// NewLoggerWithOutput writes events to out. An empty llmLogPath disables the
// LLM transcript file.
func NewLoggerWithOutput(out io.Writer, llmLogPath string) *Logger {
	return &Logger{
		out:        out,
		llmLogPath: llmLogPath,
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event, one per line.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": "failed to marshal event: %v"}`, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Keep one .old file.
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogRun(ctx context.Context, status string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["status"] = status
	l.Log(Event{Type: EventTypeRun, RunID: RunID(ctx), Data: data})
}

func (l *Logger) LogStep(ctx context.Context, step string, d time.Duration, err error) {
	data := map[string]any{"duration_ms": d.Milliseconds()}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeStep, RunID: RunID(ctx), Step: step, Data: data})
}

func (l *Logger) LogSearch(ctx context.Context, backend, query string, err error) {
	data := map[string]any{"backend": backend, "query": query}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeSearch, RunID: RunID(ctx), Step: "research", Data: data})
}

func (l *Logger) LogLLM(ctx context.Context, step, prompt, response string, err error) {
	data := map[string]any{"prompt": prompt, "response": response}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeLLM, RunID: RunID(ctx), Step: step, Data: data})
}

func (l *Logger) LogCritique(ctx context.Context, data any) {
	l.Log(Event{Type: EventTypeCritique, RunID: RunID(ctx), Step: "critique", Data: data})
}

func (l *Logger) LogIntent(ctx context.Context, source string, intent any) {
	l.Log(Event{
		Type:  EventTypeIntent,
		RunID: RunID(ctx),
		Data:  map[string]any{"source": source, "intent": intent},
	})
}

func (l *Logger) LogHTTP(method, path string, status int, d time.Duration) {
	l.Log(Event{
		Type: EventTypeHTTP,
		Data: map[string]any{
			"method":      method,
			"path":        path,
			"status":      status,
			"duration_ms": d.Milliseconds(),
		},
	})
}
