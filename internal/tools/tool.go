package tools

import (
	"context"
	"sort"
)

// Record is one structured search hit.
type Record struct {
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Result is what an information source returns for one query: either plain
// text or a list of structured records.
type Result struct {
	Text    string
	Records []Record
}

// Structured reports whether the backend returned records instead of text.
func (r Result) Structured() bool {
	return r.Records != nil
}

// Searcher defines the interface for all information source backends.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) (Result, error)
}

// Registry manages the set of available search backends.
type Registry struct {
	Searchers map[string]Searcher
}

func NewRegistry() *Registry {
	return &Registry{
		Searchers: make(map[string]Searcher),
	}
}

func (r *Registry) Register(s Searcher) {
	r.Searchers[s.Name()] = s
}

func (r *Registry) Get(name string) Searcher {
	return r.Searchers[name]
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Searchers))
	for n := range r.Searchers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
