package gateway

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/rahul/scout/internal/agent"
	"github.com/rahul/scout/internal/stream"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Start begins the message listening loop
	Start() error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

// Responder answers one chat turn with a stream of frames.
type Responder interface {
	Respond(ctx context.Context, req agent.ChatRequest) iter.Seq[stream.Frame]
}

var _ Responder = (*agent.Assistant)(nil)

// maxTurns keeps the last three exchanges per chat.
const maxTurns = 6

// conversations holds recent turns per chat, in memory only, so the intent
// parser can resolve follow-ups like "yes, that one".
type conversations struct {
	mu    sync.Mutex
	turns map[string][]agent.Turn
}

func newConversations() *conversations {
	return &conversations{turns: make(map[string][]agent.Turn)}
}

func (c *conversations) history(chatID string) []agent.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]agent.Turn(nil), c.turns[chatID]...)
}

func (c *conversations) record(chatID string, turns ...agent.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := append(c.turns[chatID], turns...)
	if len(all) > maxTurns {
		all = append([]agent.Turn(nil), all[len(all)-maxTurns:]...)
	}
	c.turns[chatID] = all
}

// converse runs one chat turn and sends each rendered chunk through send as
// soon as it is available.
func converse(ctx context.Context, r Responder, convs *conversations, chatID, text string, style Style, send func(string) error) error {
	req := agent.ChatRequest{Message: text, ConversationHistory: convs.history(chatID), ChatID: chatID}

	var replies []string
	for f := range r.Respond(ctx, req) {
		if f.Type == stream.TypeMessage {
			replies = append(replies, f.Content)
		}
		for _, chunk := range Render(f, style) {
			if err := send(chunk); err != nil {
				return err
			}
		}
	}

	convs.record(chatID,
		agent.Turn{Role: "user", Content: text},
		agent.Turn{Role: "assistant", Content: strings.Join(replies, "\n")},
	)
	return nil
}
