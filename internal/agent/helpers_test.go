package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/rahul/scout/internal/llmtest"
	"github.com/rahul/scout/internal/tools"
)

const (
	critiqueOK = `{"has_conflicts": false, "conflict_description": null, "needs_more_research": false, "quality_score": 8}`

	planJSON = "```json\n" + `{
  "overview": "Acme makes anvils.",
  "products_services": "Anvils, rockets.",
  "markets_customers": "Coyotes.",
  "opportunities": "Desert expansion.",
  "risks": "Roadrunners.",
  "recommended_actions": "Schedule a call."
}` + "\n```"
)

// scriptedModel answers critique and synthesis prompts with well-formed JSON.
func scriptedModel() *llmtest.Model {
	return &llmtest.Model{Rules: []llmtest.Rule{
		{Contains: "Analyze this research data", Reply: critiqueOK},
		{Contains: "Strategic Account Plan", Reply: planJSON},
	}}
}

var errSearchDown = errors.New("search backend down")

type fakeSearcher struct {
	mu      sync.Mutex
	result  tools.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(ctx context.Context, q string) (tools.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return tools.Result{}, err
	}
	return f.result, f.err
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}
