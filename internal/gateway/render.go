package gateway

import (
	"fmt"
	"strings"

	"github.com/rahul/scout/internal/agent"
	"github.com/rahul/scout/internal/stream"
)

// Style selects the bold markup of the target chat platform.
type Style struct {
	Bold string
}

var (
	TelegramStyle = Style{Bold: "*"}
	DiscordStyle  = Style{Bold: "**"}
	PlainStyle    = Style{}
)

// Render turns a frame into chat-sized text chunks.
func Render(f stream.Frame, style Style) []string {
	switch f.Type {
	case stream.TypeMessage:
		return []string{f.Content}
	case stream.TypeError:
		return []string{"❌ " + f.Message}
	case stream.TypeAgentEvent:
		ev, ok := f.Data.(agent.StepEvent)
		if !ok {
			return nil
		}
		return renderStep(ev, style)
	}
	return nil
}

func renderStep(ev agent.StepEvent, style Style) []string {
	var out []string
	if len(ev.Update.Messages) > 0 {
		out = append(out, strings.Join(ev.Update.Messages, "\n"))
	}
	if ev.Node == agent.NodeResearch && ev.Update.Sources != nil {
		out = append(out, fmt.Sprintf("📚 %d sources collected", len(ev.Update.Sources)))
	}
	if ev.Update.Plan != nil {
		for _, s := range ev.Update.Plan.Sections() {
			out = append(out, style.Bold+s.Title+style.Bold+"\n"+strings.TrimSpace(s.Body))
		}
	}
	return out
}
