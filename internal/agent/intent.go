package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/scout/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

const (
	UnknownCompany = "unknown"
	DefaultGoals   = "general overview"

	clarifyCompanyQuestion = "Which company would you like me to research?"
	offTopicQuestion       = "I can help you research companies and generate strategic account plans. Which company are you interested in?"
)

// historyWindow is how many prior turns are shown to the model.
const historyWindow = 3

// Turn is one prior message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent is the classification of a chat message.
type Intent struct {
	WantsResearch      bool    `json:"wants_research"`
	Company            string  `json:"company"`
	Goals              string  `json:"goals"`
	NeedsClarification bool    `json:"needs_clarification"`
	ClarifyingQuestion *string `json:"clarifying_question"`
}

// Question returns the clarifying question, asking for the company when the
// model gave none.
func (in Intent) Question() string {
	if in.ClarifyingQuestion == nil || strings.TrimSpace(*in.ClarifyingQuestion) == "" {
		return clarifyCompanyQuestion
	}
	return *in.ClarifyingQuestion
}

// IntentParser classifies chat messages with the model and falls back to
// keyword heuristics when the model is unavailable or answers badly.
type IntentParser struct {
	Model   llms.Model
	Prompts *PromptManager
	Logger  *observability.Logger
	Timeout time.Duration
}

// Parse classifies message. The only error it returns is a prompt that
// cannot be rendered or a canceled context.
func (p *IntentParser) Parse(ctx context.Context, message string, history []Turn) (Intent, error) {
	prompt, err := p.Prompts.Render(PromptIntent, map[string]any{
		"context": renderHistory(history),
		"message": message,
	})
	if err != nil {
		return Intent{}, err
	}

	source := "model"
	in, err := p.classify(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return Intent{}, ctx.Err()
		}
		observability.ParseFallbacks.WithLabelValues("intent").Inc()
		source = "heuristic"
		in = HeuristicIntent(message)
	}
	p.Logger.LogIntent(ctx, source, in)
	return in, nil
}

func (p *IntentParser) classify(ctx context.Context, prompt string) (Intent, error) {
	if p.Model == nil {
		return Intent{}, fmt.Errorf("no model configured")
	}
	text, err := complete(ctx, p.Model, p.Timeout, p.Logger, "intent", prompt)
	if err != nil {
		return Intent{}, err
	}
	return ParseIntent(text)
}

func renderHistory(history []Turn) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	lines := make([]string, len(history))
	for i, t := range history {
		lines[i] = t.Role + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}

var researchTriggers = []string{"research", "tell me about", "analyze", "account plan"}

var companyMarkers = map[string]bool{"about": true, "on": true, "for": true}

// HeuristicIntent classifies message by keywords alone.
func HeuristicIntent(message string) Intent {
	lower := strings.ToLower(message)
	triggered := false
	for _, t := range researchTriggers {
		if strings.Contains(lower, t) {
			triggered = true
			break
		}
	}
	if !triggered {
		q := offTopicQuestion
		return Intent{
			Company:            UnknownCompany,
			NeedsClarification: true,
			ClarifyingQuestion: &q,
		}
	}

	in := Intent{WantsResearch: true, Company: UnknownCompany, Goals: DefaultGoals}
	words := strings.Fields(message)
	for i, w := range words {
		if !companyMarkers[strings.ToLower(w)] {
			continue
		}
		if i+1 < len(words) {
			if name := strings.Trim(words[i+1], ".,!?"); name != "" {
				in.Company = name
			}
		}
		break
	}
	if in.Company == UnknownCompany {
		q := clarifyCompanyQuestion
		in.NeedsClarification = true
		in.ClarifyingQuestion = &q
	}
	return in
}
