package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rahul/scout/internal/llmtest"
)

func researchedState() State {
	s := NewState("Acme", "growth")
	s.ResearchData = []string{"Acme revenue is $10M", "Acme revenue is $12M"}
	return s
}

func TestCritic_Conflict(t *testing.T) {
	model := &llmtest.Model{Default: `{"has_conflicts": true, "conflict_description": "revenue figures differ", "needs_more_research": false, "quality_score": 5}`}
	c := &Critic{Model: model, Prompts: &PromptManager{}}

	u, err := c.Run(context.Background(), researchedState())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if u.CritiqueCount == nil || *u.CritiqueCount != 1 {
		t.Fatalf("critique count not incremented: %v", u.CritiqueCount)
	}
	want := "⚠️ I found some conflicting information about Acme: revenue figures differ. Proceeding with the most reliable sources..."
	if len(u.Messages) != 1 || u.Messages[0] != want {
		t.Errorf("unexpected messages %q", u.Messages)
	}
	prompt := model.Prompts()[0]
	if !strings.Contains(prompt, "Acme revenue is $10M\nAcme revenue is $12M") {
		t.Errorf("research data not joined into prompt:\n%s", prompt)
	}
}

func TestCritic_NullDescription(t *testing.T) {
	model := &llmtest.Model{Default: `{"has_conflicts": true, "conflict_description": null}`}
	c := &Critic{Model: model, Prompts: &PromptManager{}}

	u, _ := c.Run(context.Background(), researchedState())
	if len(u.Messages) != 1 || !strings.Contains(u.Messages[0], "Acme: data inconsistencies.") {
		t.Errorf("unexpected messages %q", u.Messages)
	}
}

func TestCritic_UnparseableReply(t *testing.T) {
	model := &llmtest.Model{Default: "The research looks thorough."}
	c := &Critic{Model: model, Prompts: &PromptManager{}}
	s := researchedState()
	s.CritiqueCount = 3

	u, err := c.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if u.Messages != nil {
		t.Errorf("expected no messages, got %q", u.Messages)
	}
	if *u.CritiqueCount != 4 {
		t.Errorf("expected count 4, got %d", *u.CritiqueCount)
	}
}

func TestCritic_ModelError(t *testing.T) {
	c := &Critic{Model: &llmtest.Model{DefaultErr: errors.New("quota exceeded")}, Prompts: &PromptManager{}}
	u, err := c.Run(context.Background(), researchedState())
	if err != nil {
		t.Fatalf("model errors must be swallowed: %v", err)
	}
	if *u.CritiqueCount != 1 || u.Messages != nil {
		t.Errorf("unexpected update %+v", u)
	}
}

func TestCritic_TruncatesResearch(t *testing.T) {
	model := &llmtest.Model{Default: critiqueOK}
	c := &Critic{Model: model, Prompts: &PromptManager{}}
	s := NewState("Acme", "growth")
	s.ResearchData = []string{strings.Repeat("a", critiqueWindow) + "TAIL"}

	c.Run(context.Background(), s)
	prompt := model.Prompts()[0]
	if strings.Contains(prompt, "TAIL") {
		t.Error("research data beyond the window reached the prompt")
	}
	if !strings.Contains(prompt, strings.Repeat("a", critiqueWindow)) {
		t.Error("research window missing from prompt")
	}
}

func TestRouteAfterCritique(t *testing.T) {
	cases := map[int]string{0: NodeResearch, 1: NodeSynthesize, 5: NodeSynthesize}
	for count, want := range cases {
		s := NewState("Acme", "growth")
		s.CritiqueCount = count
		if got := RouteAfterCritique(s); got != want {
			t.Errorf("count %d: got %q, want %q", count, got, want)
		}
	}
}
