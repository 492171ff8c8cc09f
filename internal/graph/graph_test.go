package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type counter struct {
	Visits []string
	Loops  int
}

type visit struct {
	Node string
	Loop bool
}

func mergeCounter(s counter, u visit) counter {
	s.Visits = append(append([]string(nil), s.Visits...), u.Node)
	if u.Loop {
		s.Loops++
	}
	return s
}

func node(name string, loop bool) NodeFunc[counter, visit] {
	return func(_ context.Context, _ counter) (visit, error) {
		return visit{Node: name, Loop: loop}, nil
	}
}

func loopGraph(t *testing.T) *Runnable[counter, visit] {
	t.Helper()
	g := New(mergeCounter)
	g.AddNode("a", node("a", false))
	g.AddNode("b", node("b", true))
	g.AddNode("c", node("c", false))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddConditionalEdges("b", func(s counter) string {
		if s.Loops < 2 {
			return "again"
		}
		return "done"
	}, map[string]string{"again": "a", "done": "c"})
	g.AddEdge("c", End)
	r, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return r
}

func TestStreamYieldsInExecutionOrder(t *testing.T) {
	r := loopGraph(t)

	var got []string
	for ev, err := range r.Stream(context.Background(), counter{}) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, ev.Node)
	}

	want := "a,b,a,b,c"
	if strings.Join(got, ",") != want {
		t.Errorf("Expected %s, got %s", want, strings.Join(got, ","))
	}
}

func TestStreamStopsWhenConsumerBreaks(t *testing.T) {
	executed := 0
	g := New(mergeCounter)
	g.AddNode("a", func(_ context.Context, _ counter) (visit, error) {
		executed++
		return visit{Node: "a"}, nil
	})
	g.AddNode("b", func(_ context.Context, _ counter) (visit, error) {
		executed++
		return visit{Node: "b"}, nil
	})
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", End)
	r, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}

	for range r.Stream(context.Background(), counter{}) {
		break
	}
	if executed != 1 {
		t.Errorf("Expected 1 node execution after break, got %d", executed)
	}
}

func TestInvokeReturnsFinalState(t *testing.T) {
	r := loopGraph(t)
	final, err := r.Invoke(context.Background(), counter{})
	if err != nil {
		t.Fatal(err)
	}
	if final.Loops != 2 || len(final.Visits) != 5 {
		t.Errorf("Unexpected final state: %+v", final)
	}
}

func TestStepLimit(t *testing.T) {
	g := New(mergeCounter)
	g.AddNode("a", node("a", false))
	g.SetEntryPoint("a")
	g.AddConditionalEdges("a", func(counter) string { return "loop" }, map[string]string{"loop": "a"})
	g.SetMaxSteps(3)
	r, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Invoke(context.Background(), counter{})
	if !errors.Is(err, ErrStepLimit) {
		t.Fatalf("Expected ErrStepLimit, got %v", err)
	}
}

func TestNodeErrorEndsStream(t *testing.T) {
	boom := errors.New("boom")
	g := New(mergeCounter)
	g.AddNode("a", func(context.Context, counter) (visit, error) { return visit{}, boom })
	g.SetEntryPoint("a")
	g.AddEdge("a", End)
	r, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}

	events := 0
	var last error
	for _, err := range r.Stream(context.Background(), counter{}) {
		events++
		last = err
	}
	if events != 1 || !errors.Is(last, boom) {
		t.Errorf("Expected a single wrapped error, got %d events, err=%v", events, last)
	}
}

func TestUnknownRoute(t *testing.T) {
	g := New(mergeCounter)
	g.AddNode("a", node("a", false))
	g.SetEntryPoint("a")
	g.AddConditionalEdges("a", func(counter) string { return "nowhere" }, map[string]string{"end": End})
	r, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Invoke(context.Background(), counter{}); err == nil || !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("Expected unknown route error, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	r := loopGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Invoke(ctx, counter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCompileValidation(t *testing.T) {
	g := New(mergeCounter)
	g.AddNode("a", node("a", false))
	g.AddNode("a", node("a", false))
	g.AddNode("b", node("b", false))
	g.AddEdge("a", "missing")

	_, err := g.Compile()
	if err == nil {
		t.Fatal("Expected compile error")
	}
	for _, part := range []string{"duplicate node", "entry point", "unknown node \"missing\"", "\"b\" has no outgoing edge"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("Compile error missing %q: %v", part, err)
		}
	}
}
