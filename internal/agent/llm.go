package agent

import (
	"context"
	"time"

	"github.com/rahul/scout/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// complete sends a single prompt to the model, bounded by timeout when it is
// positive, and records the exchange in the LLM transcript.
func complete(ctx context.Context, model llms.Model, timeout time.Duration, logger *observability.Logger, step, prompt string) (string, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	text, err := llms.GenerateFromSinglePrompt(callCtx, model, prompt)
	logger.LogLLM(ctx, step, prompt, text, err)
	return text, err
}
