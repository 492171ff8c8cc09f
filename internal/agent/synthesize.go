package agent

import (
	"context"
	"strings"
	"time"

	"github.com/rahul/scout/internal/observability"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/outputparser"
)

var planParser = func() outputparser.Structured {
	schemas := make([]outputparser.ResponseSchema, len(PlanKeys))
	for i, k := range PlanKeys {
		schemas[i] = outputparser.ResponseSchema{Name: k, Description: planDescriptions[k]}
	}
	return outputparser.NewStructured(schemas)
}()

// Synthesizer turns the accumulated research into a Plan. It always returns
// a complete plan; failures produce FallbackPlan.
type Synthesizer struct {
	Model   llms.Model
	Prompts *PromptManager
	Logger  *observability.Logger
	Timeout time.Duration
}

func (s *Synthesizer) Run(ctx context.Context, st State) (Update, error) {
	plan, err := s.synthesize(ctx, st)
	if err != nil {
		if ctx.Err() != nil {
			return Update{}, ctx.Err()
		}
		observability.ParseFallbacks.WithLabelValues("synthesize").Inc()
		plan = FallbackPlan(err)
	}
	return Update{Plan: &plan}, nil
}

func (s *Synthesizer) synthesize(ctx context.Context, st State) (Plan, error) {
	tmpl, err := s.Prompts.Template(PromptSynthesize)
	if err != nil {
		return Plan{}, err
	}
	tmpl.PartialVariables = map[string]any{"format_instructions": planParser.GetFormatInstructions()}
	prompt, err := tmpl.Format(map[string]any{
		"company": st.Company,
		"data":    strings.Join(st.ResearchData, "\n"),
	})
	if err != nil {
		return Plan{}, err
	}
	text, err := complete(ctx, s.Model, s.Timeout, s.Logger, "synthesize", prompt)
	if err != nil {
		return Plan{}, err
	}
	return ParsePlan(text)
}
