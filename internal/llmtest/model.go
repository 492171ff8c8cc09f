// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Rule answers any prompt containing Contains.
type Rule struct {
	Contains string
	Reply    string
	Err      error
}

// Model replies with the first matching rule, else Default (or DefaultErr).
// Every prompt it receives is recorded.
type Model struct {
	Rules      []Rule
	Default    string
	DefaultErr error

	mu      sync.Mutex
	prompts []string
}

var _ llms.Model = (*Model)(nil)

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				sb.WriteString(tc.Text)
			}
		}
	}
	prompt := sb.String()

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	reply, err := m.Default, m.DefaultErr
	for _, r := range m.Rules {
		if strings.Contains(prompt, r.Contains) {
			reply, err = r.Reply, r.Err
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Prompts returns a copy of the prompts received so far.
func (m *Model) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
