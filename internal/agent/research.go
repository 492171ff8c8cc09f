package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/tools"
)

// researchTopics are issued in this order; labels are emitted before each
// query runs.
var researchTopics = []struct {
	query string
	label string
}{
	{"%s company overview and business model", "📊 Researching company overview and business model..."},
	{"%s key products services and revenue streams", "🛍️ Analyzing products, services, and revenue streams..."},
	{"%s major competitors and market share", "🏆 Investigating competitors and market position..."},
	{"%s recent strategic partnerships and news %s", "📰 Gathering recent news and strategic partnerships..."},
}

// ResearchQueries returns the four topic queries for company and goals.
func ResearchQueries(company, goals string) []string {
	out := make([]string, len(researchTopics))
	for i, t := range researchTopics {
		if i == len(researchTopics)-1 {
			out[i] = fmt.Sprintf(t.query, company, goals)
			continue
		}
		out[i] = fmt.Sprintf(t.query, company)
	}
	return out
}

// Researcher gathers raw material about the company from the information
// source. Queries run sequentially; a failed query degrades to placeholder
// text and never aborts the step.
type Researcher struct {
	Searcher tools.Searcher
	Logger   *observability.Logger
	// Timeout bounds each search call; zero means no limit.
	Timeout  time.Duration
}

func (r *Researcher) Run(ctx context.Context, s State) (Update, error) {
	queries := ResearchQueries(s.Company, s.Goals)
	messages := make([]string, 0, 2*len(queries)+1)
	results := make([]string, 0, len(queries))
	sources := []string{}

	for i, q := range queries {
		label := researchTopics[i].label
		messages = append(messages, label)

		text, urls, err := r.query(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return Update{}, ctx.Err()
			}
			results = append(results, fmt.Sprintf("Search failed for %s: %v", q, err))
			topic, _, _ := strings.Cut(label, "...")
			messages = append(messages, "⚠️ Had trouble finding data for: "+topic)
			continue
		}
		results = append(results, text)
		sources = append(sources, urls...)
	}

	messages = append(messages, fmt.Sprintf("✅ Gathered comprehensive data from %d sources (Overview, Products, Competitors, News)...", len(sources)))

	return Update{
		Messages:     messages,
		ResearchData: []string{strings.Join(results, "\n\n")},
		Sources:      sources,
	}, nil
}

func (r *Researcher) query(ctx context.Context, q string) (string, []string, error) {
	callCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	name := r.Searcher.Name()
	res, err := r.Searcher.Search(callCtx, q)
	r.Logger.LogSearch(ctx, name, q, err)
	if err != nil {
		observability.SearchFailures.WithLabelValues(name).Inc()
		return "", nil, err
	}
	if !res.Structured() {
		return res.Text, nil, nil
	}

	var urls []string
	lines := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		if rec.URL != "" {
			urls = append(urls, rec.URL)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		lines = append(lines, string(b))
	}
	return strings.Join(lines, "\n"), urls, nil
}
