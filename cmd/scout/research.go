package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rahul/scout/internal/agent"
	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/stream"
	"github.com/spf13/cobra"
)

func newResearchCmd(configPath *string) *cobra.Command {
	var goals string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "research <company>",
		Short: "Research one company and print its account plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			company := strings.Join(args, " ")
			if strings.TrimSpace(goals) == "" {
				goals = agent.DefaultGoals
			}

			a, err := newApp(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			if asJSON {
				return streamJSON(ctx, a, out, company, goals)
			}
			return streamTerminal(ctx, a, out, company, goals)
		},
	}
	cmd.Flags().StringVarP(&goals, "goals", "g", "", "research goals (default \"general overview\")")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw step events as NDJSON")
	return cmd
}

func streamJSON(ctx context.Context, a *app, out io.Writer, company, goals string) error {
	w := stream.NewWriter(out)
	for ev, err := range a.assistant.Workflow.Stream(ctx, company, goals) {
		if err != nil {
			_ = w.Write(map[string]string{"error": err.Error()})
			return err
		}
		if err := w.Write(agent.StepEvent{Node: ev.Node, Update: ev.Update}); err != nil {
			return err
		}
	}
	return nil
}

func streamTerminal(ctx context.Context, a *app, out io.Writer, company, goals string) error {
	color := observability.IsTerminal()
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + observability.ColorReset
	}

	fmt.Fprintln(out, paint(observability.ColorBold, fmt.Sprintf("Researching %s (%s)", company, goals)))
	rule := strings.Repeat("─", min(observability.TermWidth(), 80))

	var final agent.State
	for ev, err := range a.assistant.Workflow.Stream(ctx, company, goals) {
		if err != nil {
			return err
		}
		final = ev.State
		fmt.Fprintln(out, paint(observability.ColorPurple, "["+ev.Node+"]"))
		for _, m := range ev.Update.Messages {
			fmt.Fprintln(out, "  "+m)
		}
	}
	if final.Plan == nil {
		return fmt.Errorf("workflow finished without a plan")
	}

	fmt.Fprintln(out, rule)
	fmt.Fprint(out, final.Plan.Markdown(company))
	if len(final.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, paint(observability.ColorYellow, fmt.Sprintf("Sources (%d):", len(final.Sources))))
		for _, s := range final.Sources {
			fmt.Fprintln(out, "  "+s)
		}
	}

	if a.reports != nil {
		if r, ok := agent.NewReport(final); ok {
			if err := a.reports.SaveReport(ctx, r); err != nil {
				return err
			}
			fmt.Fprintln(out, paint(observability.ColorNeonCyan, "Saved report "+r.ID))
		}
	}
	return nil
}
