package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/rahul/scout/internal/tools"
)

func TestResearchQueries(t *testing.T) {
	got := ResearchQueries("Acme", "growth")
	want := []string{
		"Acme company overview and business model",
		"Acme key products services and revenue streams",
		"Acme major competitors and market share",
		"Acme recent strategic partnerships and news growth",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d queries", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResearcher_PlainText(t *testing.T) {
	s := &fakeSearcher{result: tools.Result{Text: "ok"}}
	r := &Researcher{Searcher: s}

	u, err := r.Run(context.Background(), NewState("Acme", "growth"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.calls() != 4 {
		t.Errorf("expected 4 searches, got %d", s.calls())
	}
	if len(u.ResearchData) != 1 || u.ResearchData[0] != "ok\n\nok\n\nok\n\nok" {
		t.Errorf("unexpected research data %q", u.ResearchData)
	}
	if u.Sources == nil || len(u.Sources) != 0 {
		t.Errorf("expected empty non-nil sources, got %v", u.Sources)
	}
	if len(u.Messages) != 5 {
		t.Fatalf("expected 4 labels and a summary, got %v", u.Messages)
	}
	if u.Messages[0] != "📊 Researching company overview and business model..." {
		t.Errorf("unexpected first label %q", u.Messages[0])
	}
	if u.Messages[4] != "✅ Gathered comprehensive data from 0 sources (Overview, Products, Competitors, News)..." {
		t.Errorf("unexpected summary %q", u.Messages[4])
	}
}

func TestResearcher_StructuredRecords(t *testing.T) {
	s := &fakeSearcher{result: tools.Result{Records: []tools.Record{
		{Title: "Acme", URL: "https://acme.example", Content: "anvils"},
		{Title: "No link", Content: "text"},
	}}}
	r := &Researcher{Searcher: s}

	u, _ := r.Run(context.Background(), NewState("Acme", "growth"))
	if len(u.Sources) != 4 {
		t.Errorf("expected one source per query, got %v", u.Sources)
	}
	first := strings.Split(u.ResearchData[0], "\n\n")[0]
	want := `{"title":"Acme","url":"https://acme.example","content":"anvils"}` + "\n" + `{"title":"No link","content":"text"}`
	if first != want {
		t.Errorf("unexpected record text:\n%s", first)
	}
	if !strings.Contains(u.Messages[len(u.Messages)-1], "from 4 sources") {
		t.Errorf("summary should count sources: %q", u.Messages[len(u.Messages)-1])
	}
}

func TestResearcher_FailuresDegrade(t *testing.T) {
	s := &fakeSearcher{err: errSearchDown}
	r := &Researcher{Searcher: s}

	u, err := r.Run(context.Background(), NewState("Acme", "growth"))
	if err != nil {
		t.Fatalf("search failures must not fail the step: %v", err)
	}
	parts := strings.Split(u.ResearchData[0], "\n\n")
	if len(parts) != 4 {
		t.Fatalf("expected 4 placeholders, got %d", len(parts))
	}
	if parts[0] != "Search failed for Acme company overview and business model: search backend down" {
		t.Errorf("unexpected placeholder %q", parts[0])
	}
	if u.Messages[1] != "⚠️ Had trouble finding data for: 📊 Researching company overview and business model" {
		t.Errorf("unexpected warning %q", u.Messages[1])
	}
	if len(u.Messages) != 9 {
		t.Errorf("expected label and warning per query plus summary, got %d", len(u.Messages))
	}
}

func TestResearcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Researcher{Searcher: &fakeSearcher{result: tools.Result{Text: "ok"}}}
	if _, err := r.Run(ctx, NewState("Acme", "growth")); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
