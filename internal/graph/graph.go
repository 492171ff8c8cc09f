// Package graph runs a small directed state machine one node at a time and
// hands every node's partial output to the caller before moving on.
package graph

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// End is the terminal pseudo-node.
const End = "__end__"

const defaultMaxSteps = 25

var (
	ErrNoEntryPoint = errors.New("graph: entry point not set")
	ErrStepLimit    = errors.New("graph: step limit exceeded")
)

// NodeFunc executes one state and returns the fields it touched.
type NodeFunc[S, U any] func(ctx context.Context, state S) (U, error)

// Router picks the route key for a conditional edge from the merged state.
type Router[S any] func(state S) string

// MergeFunc folds a node's update into the running state.
type MergeFunc[S, U any] func(state S, update U) S

// Event is yielded after every node execution.
type Event[S, U any] struct {
	Node   string
	Update U
	// State is the running state after Update was merged.
	State S
}

type branch[S any] struct {
	route   Router[S]
	targets map[string]string
}

// Graph is the builder. Configuration errors are collected and reported by
// Compile.
type Graph[S, U any] struct {
	nodes    map[string]NodeFunc[S, U]
	edges    map[string]string
	branches map[string]branch[S]
	entry    string
	merge    MergeFunc[S, U]
	maxSteps int
	errs     []error
}

// New creates an empty graph that merges updates with merge.
func New[S, U any](merge MergeFunc[S, U]) *Graph[S, U] {
	return &Graph[S, U]{
		nodes:    make(map[string]NodeFunc[S, U]),
		edges:    make(map[string]string),
		branches: make(map[string]branch[S]),
		merge:    merge,
		maxSteps: defaultMaxSteps,
	}
}

func (g *Graph[S, U]) AddNode(name string, fn NodeFunc[S, U]) {
	switch {
	case name == "" || name == End:
		g.errs = append(g.errs, fmt.Errorf("graph: invalid node name %q", name))
	case fn == nil:
		g.errs = append(g.errs, fmt.Errorf("graph: node %q has no function", name))
	case g.nodes[name] != nil:
		g.errs = append(g.errs, fmt.Errorf("graph: duplicate node %q", name))
	default:
		g.nodes[name] = fn
	}
}

// AddEdge adds an unconditional transition.
func (g *Graph[S, U]) AddEdge(from, to string) {
	if _, ok := g.edges[from]; ok {
		g.errs = append(g.errs, fmt.Errorf("graph: node %q already has an edge", from))
		return
	}
	g.edges[from] = to
}

// AddConditionalEdges routes from a node through route; the returned key is
// looked up in targets.
func (g *Graph[S, U]) AddConditionalEdges(from string, route Router[S], targets map[string]string) {
	if route == nil || len(targets) == 0 {
		g.errs = append(g.errs, fmt.Errorf("graph: conditional edge from %q needs a router and targets", from))
		return
	}
	copied := make(map[string]string, len(targets))
	for k, v := range targets {
		copied[k] = v
	}
	g.branches[from] = branch[S]{route: route, targets: copied}
}

func (g *Graph[S, U]) SetEntryPoint(name string) { g.entry = name }

// SetMaxSteps bounds the number of node executions per run.
func (g *Graph[S, U]) SetMaxSteps(n int) {
	if n > 0 {
		g.maxSteps = n
	}
}

// Compile validates the topology and returns an immutable runnable.
func (g *Graph[S, U]) Compile() (*Runnable[S, U], error) {
	errs := append([]error(nil), g.errs...)
	if g.merge == nil {
		errs = append(errs, errors.New("graph: merge function is nil"))
	}
	if g.entry == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if g.nodes[g.entry] == nil {
		errs = append(errs, fmt.Errorf("graph: entry point %q is not a node", g.entry))
	}
	known := func(name string) bool { return name == End || g.nodes[name] != nil }
	for from, to := range g.edges {
		if g.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("graph: edge from unknown node %q", from))
		}
		if !known(to) {
			errs = append(errs, fmt.Errorf("graph: edge to unknown node %q", to))
		}
		if _, ok := g.branches[from]; ok {
			errs = append(errs, fmt.Errorf("graph: node %q has both an edge and a conditional edge", from))
		}
	}
	for from, b := range g.branches {
		if g.nodes[from] == nil {
			errs = append(errs, fmt.Errorf("graph: conditional edge from unknown node %q", from))
		}
		for key, to := range b.targets {
			if !known(to) {
				errs = append(errs, fmt.Errorf("graph: route %q from %q targets unknown node %q", key, from, to))
			}
		}
	}
	for name := range g.nodes {
		_, e := g.edges[name]
		_, b := g.branches[name]
		if !e && !b {
			errs = append(errs, fmt.Errorf("graph: node %q has no outgoing edge", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	r := &Runnable[S, U]{
		nodes:    make(map[string]NodeFunc[S, U], len(g.nodes)),
		edges:    make(map[string]string, len(g.edges)),
		branches: make(map[string]branch[S], len(g.branches)),
		entry:    g.entry,
		merge:    g.merge,
		maxSteps: g.maxSteps,
	}
	for k, v := range g.nodes {
		r.nodes[k] = v
	}
	for k, v := range g.edges {
		r.edges[k] = v
	}
	for k, v := range g.branches {
		r.branches[k] = v
	}
	return r, nil
}

// Runnable executes a compiled graph. It holds no per-run state and may be
// shared by concurrent runs.
type Runnable[S, U any] struct {
	nodes    map[string]NodeFunc[S, U]
	edges    map[string]string
	branches map[string]branch[S]
	entry    string
	merge    MergeFunc[S, U]
	maxSteps int
}

// Stream executes the graph from the entry point. Each node's update is
// yielded before the next node starts, so execution advances only as fast as
// the consumer reads. Breaking out of the loop stops the run. A failure is
// yielded once as a non-nil error and ends the sequence.
func (r *Runnable[S, U]) Stream(ctx context.Context, initial S) iter.Seq2[Event[S, U], error] {
	return func(yield func(Event[S, U], error) bool) {
		state := initial
		current := r.entry
		for steps := 0; current != End; steps++ {
			if steps >= r.maxSteps {
				yield(Event[S, U]{State: state}, fmt.Errorf("%w: %d", ErrStepLimit, r.maxSteps))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(Event[S, U]{State: state}, err)
				return
			}
			update, err := r.nodes[current](ctx, state)
			if err != nil {
				yield(Event[S, U]{Node: current, State: state}, fmt.Errorf("node %q: %w", current, err))
				return
			}
			state = r.merge(state, update)
			if !yield(Event[S, U]{Node: current, Update: update, State: state}, nil) {
				return
			}
			next, err := r.next(current, state)
			if err != nil {
				yield(Event[S, U]{Node: current, State: state}, err)
				return
			}
			current = next
		}
	}
}

// Invoke runs the graph to completion and returns the final state.
func (r *Runnable[S, U]) Invoke(ctx context.Context, initial S) (S, error) {
	state := initial
	for ev, err := range r.Stream(ctx, initial) {
		if err != nil {
			return ev.State, err
		}
		state = ev.State
	}
	return state, nil
}

func (r *Runnable[S, U]) next(current string, state S) (string, error) {
	if to, ok := r.edges[current]; ok {
		return to, nil
	}
	b := r.branches[current]
	key := b.route(state)
	to, ok := b.targets[key]
	if !ok {
		return "", fmt.Errorf("graph: router for %q returned unknown route %q", current, key)
	}
	return to, nil
}
