package agent

import (
	"context"
	"fmt"
	"iter"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/scout/internal/governance"
	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/stream"
)

const offTopicReply = "I specialize in researching companies and creating strategic account plans. Could you tell me which company you'd like to learn about?"

// ChatRequest is one user message plus the conversation so far.
type ChatRequest struct {
	Message             string `json:"message"`
	ConversationHistory []Turn `json:"conversation_history"`
	// ChatID identifies the conversation for policy checks; empty over HTTP.
	ChatID              string `json:"-"`
}

// Report is a finished plan as kept in the archive.
type Report struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Goals     string    `json:"goals"`
	Plan      Plan      `json:"plan"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReport builds a report from a finished run. It returns false when the
// run produced no plan.
func NewReport(s State) (Report, bool) {
	if s.Plan == nil {
		return Report{}, false
	}
	sources := append([]string{}, s.Sources...)
	return Report{
		ID:        uuid.NewString(),
		Company:   s.Company,
		Goals:     s.Goals,
		Plan:      *s.Plan,
		Sources:   sources,
		CreatedAt: time.Now().UTC(),
	}, true
}

// Archive keeps finished reports.
type Archive interface {
	SaveReport(ctx context.Context, r Report) error
}

// Assistant drives one chat turn: intent, optional clarification, and the
// streamed research run.
type Assistant struct {
	Intents  *IntentParser
	Workflow *Workflow
	Policy   governance.PolicyEngine
	Archive  Archive
	Logger   *observability.Logger
}

// Respond yields the frames answering req. Any failure ends the stream with
// a single error frame.
func (a *Assistant) Respond(ctx context.Context, req ChatRequest) iter.Seq[stream.Frame] {
	return func(yield func(stream.Frame) bool) {
		in, err := a.Intents.Parse(ctx, req.Message, req.ConversationHistory)
		if err != nil {
			yield(stream.Error(err))
			return
		}

		if in.NeedsClarification {
			yield(stream.Message(in.Question()))
			return
		}
		if !in.WantsResearch || in.Company == UnknownCompany {
			yield(stream.Message(offTopicReply))
			return
		}

		if a.Policy != nil {
			res, err := a.Policy.Evaluate(ctx, governance.Request{Company: in.Company, Goals: in.Goals, ChatID: req.ChatID})
			if err != nil {
				yield(stream.Error(fmt.Errorf("policy check: %w", err)))
				return
			}
			if !res.Allowed() {
				yield(stream.Message(res.Reason))
				return
			}
		}

		ack := fmt.Sprintf("Great! I'll research **%s** for you. This will take a moment...", in.Company)
		if !yield(stream.Message(ack)) {
			return
		}

		var final State
		for ev, err := range a.Workflow.Stream(ctx, in.Company, in.Goals) {
			if err != nil {
				yield(stream.Error(err))
				return
			}
			final = ev.State
			if !yield(stream.AgentEvent(StepEvent{Node: ev.Node, Update: ev.Update})) {
				return
			}
		}

		a.archive(ctx, final)
	}
}

func (a *Assistant) archive(ctx context.Context, s State) {
	if a.Archive == nil {
		return
	}
	r, ok := NewReport(s)
	if !ok {
		return
	}
	if err := a.Archive.SaveReport(ctx, r); err != nil {
		log.Printf("Warning: failed to archive report for %s: %v", s.Company, err)
	}
}
