package agent

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/scout/internal/graph"
	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

const (
	NodeResearch   = "research"
	NodeCritique   = "critique"
	NodeSynthesize = "synthesize"
)

// Event is one completed workflow step together with the state after it.
type Event = graph.Event[State, Update]

var nodePhases = map[string]observability.Phase{
	NodeResearch:   observability.PhaseResearch,
	NodeCritique:   observability.PhaseCritique,
	NodeSynthesize: observability.PhaseSynthesize,
}

// Workflow runs research → critique → (research | synthesize) for one
// company. A Workflow is safe for concurrent use; each run owns its state.
type Workflow struct {
	runnable *graph.Runnable[State, Update]
	logger   *observability.Logger
}

type Option func(*workflowOptions)

type workflowOptions struct {
	logger   *observability.Logger
	prompts  *PromptManager
	timeout  time.Duration
	maxSteps int
}

func WithLogger(l *observability.Logger) Option {
	return func(o *workflowOptions) { o.logger = l }
}

func WithPrompts(pm *PromptManager) Option {
	return func(o *workflowOptions) { o.prompts = pm }
}

// WithStepTimeout bounds every search and model call.
func WithStepTimeout(d time.Duration) Option {
	return func(o *workflowOptions) { o.timeout = d }
}

func WithMaxSteps(n int) Option {
	return func(o *workflowOptions) { o.maxSteps = n }
}

// NewWorkflow wires the three steps and the loop controller into a compiled
// graph.
func NewWorkflow(model llms.Model, searcher tools.Searcher, opts ...Option) (*Workflow, error) {
	o := workflowOptions{prompts: &PromptManager{}}
	for _, opt := range opts {
		opt(&o)
	}

	researcher := &Researcher{Searcher: searcher, Logger: o.logger, Timeout: o.timeout}
	critic := &Critic{Model: model, Prompts: o.prompts, Logger: o.logger, Timeout: o.timeout}
	synth := &Synthesizer{Model: model, Prompts: o.prompts, Logger: o.logger, Timeout: o.timeout}

	g := graph.New[State, Update](Merge)
	g.AddNode(NodeResearch, instrument(NodeResearch, o.logger, researcher.Run))
	g.AddNode(NodeCritique, instrument(NodeCritique, o.logger, critic.Run))
	g.AddNode(NodeSynthesize, instrument(NodeSynthesize, o.logger, synth.Run))
	g.SetEntryPoint(NodeResearch)
	g.AddEdge(NodeResearch, NodeCritique)
	g.AddConditionalEdges(NodeCritique, RouteAfterCritique, map[string]string{
		NodeResearch:   NodeResearch,
		NodeSynthesize: NodeSynthesize,
	})
	g.AddEdge(NodeSynthesize, graph.End)
	if o.maxSteps > 0 {
		g.SetMaxSteps(o.maxSteps)
	}

	r, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return &Workflow{runnable: r, logger: o.logger}, nil
}

func instrument(name string, logger *observability.Logger, fn graph.NodeFunc[State, Update]) graph.NodeFunc[State, Update] {
	return func(ctx context.Context, s State) (Update, error) {
		observability.SetPhase(nodePhases[name])
		start := time.Now()
		u, err := fn(ctx, s)
		d := time.Since(start)
		observability.StepDuration.WithLabelValues(name).Observe(d.Seconds())
		logger.LogStep(ctx, name, d, err)
		return u, err
	}
}

// Stream runs the workflow and yields each step as it completes. Stopping
// the iteration stops the run before the next step starts.
func (w *Workflow) Stream(ctx context.Context, company, goals string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		ctx := observability.WithRunID(ctx, uuid.NewString())
		observability.RunStarted(company)
		w.logger.LogRun(ctx, "started", map[string]any{"company": company, "goals": goals})

		status := "succeeded"
		defer func() {
			observability.RunFinished(status)
			w.logger.LogRun(ctx, status, map[string]any{"company": company})
		}()

		for ev, err := range w.runnable.Stream(ctx, NewState(company, goals)) {
			if err != nil {
				status = "failed"
				yield(ev, err)
				return
			}
			if !yield(ev, nil) {
				status = "stopped"
				return
			}
		}
	}
}

// Run executes the workflow to completion and returns the final state.
func (w *Workflow) Run(ctx context.Context, company, goals string) (State, error) {
	var final State
	for ev, err := range w.Stream(ctx, company, goals) {
		if err != nil {
			return ev.State, err
		}
		final = ev.State
	}
	return final, nil
}
