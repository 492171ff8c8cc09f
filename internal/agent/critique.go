package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/scout/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// critiqueWindow bounds how much research text goes into the prompt.
const critiqueWindow = 2000

// Critic asks the model to check the research for conflicts, gaps and stale
// data. Every run increments the critique counter; nothing else is required
// to succeed.
type Critic struct {
	Model   llms.Model
	Prompts *PromptManager
	Logger  *observability.Logger
	Timeout time.Duration
}

func (c *Critic) Run(ctx context.Context, s State) (Update, error) {
	next := s.CritiqueCount + 1
	update := Update{CritiqueCount: &next}

	critique, err := c.assess(ctx, s)
	if err != nil {
		if ctx.Err() != nil {
			return Update{}, ctx.Err()
		}
		observability.ParseFallbacks.WithLabelValues("critique").Inc()
		c.Logger.LogCritique(ctx, map[string]any{"fallback": true, "error": err.Error()})
		return update, nil
	}
	c.Logger.LogCritique(ctx, map[string]any{
		"has_conflicts":       critique.HasConflicts,
		"needs_more_research": critique.NeedsMoreResearch,
		"quality_score":       critique.QualityScore,
		// The loop controller routes on the counter alone.
		"routed_on": false,
	})

	if critique.HasConflicts {
		desc := "data inconsistencies"
		if critique.ConflictDescription != nil && strings.TrimSpace(*critique.ConflictDescription) != "" {
			desc = *critique.ConflictDescription
		}
		update.Messages = []string{fmt.Sprintf(
			"⚠️ I found some conflicting information about %s: %s. Proceeding with the most reliable sources...",
			s.Company, desc)}
	}
	return update, nil
}

func (c *Critic) assess(ctx context.Context, s State) (Critique, error) {
	data := truncateRunes(strings.Join(s.ResearchData, "\n"), critiqueWindow)
	prompt, err := c.Prompts.Render(PromptCritique, map[string]any{
		"company": s.Company,
		"data":    data,
	})
	if err != nil {
		return DefaultCritique(), err
	}
	text, err := complete(ctx, c.Model, c.Timeout, c.Logger, "critique", prompt)
	if err != nil {
		return DefaultCritique(), err
	}
	return ParseCritique(text)
}

// RouteAfterCritique is the loop controller: one critique pass is mandatory
// before synthesis, and the loop never repeats after that.
func RouteAfterCritique(s State) string {
	if s.CritiqueCount < 1 {
		return NodeResearch
	}
	return NodeSynthesize
}
