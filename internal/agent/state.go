package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State is the record threaded through every workflow step. A run owns its
// State exclusively; nothing is shared across runs.
type State struct {
	Company       string   `json:"company"`
	Goals         string   `json:"goals"`
	Messages      []string `json:"messages"`
	ResearchData  []string `json:"research_data"`
	Plan          *Plan    `json:"plan_sections,omitempty"`
	CritiqueCount int      `json:"critique_count"`
	Sources       []string `json:"sources"`
}

// NewState returns the initial state of a run.
func NewState(company, goals string) State {
	return State{
		Company:      company,
		Goals:        goals,
		Messages:     []string{},
		ResearchData: []string{},
		Sources:      []string{},
	}
}

// Update is the partial output of one step. A nil slice or pointer means the
// step did not touch that field.
//
// Merge policy:
//
//	Messages, ResearchData, Sources  append
//	Plan, CritiqueCount              overwrite
type Update struct {
	Messages      []string
	ResearchData  []string
	Sources       []string
	Plan          *Plan
	CritiqueCount *int
}

// MarshalJSON encodes only the touched fields, using the state's field names.
func (u Update) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 5)
	if u.Messages != nil {
		out["messages"] = u.Messages
	}
	if u.ResearchData != nil {
		out["research_data"] = u.ResearchData
	}
	if u.Sources != nil {
		out["sources"] = u.Sources
	}
	if u.Plan != nil {
		out["plan_sections"] = u.Plan
	}
	if u.CritiqueCount != nil {
		out["critique_count"] = *u.CritiqueCount
	}
	return json.Marshal(out)
}

// Merge returns s with u applied. The result never shares slice backing
// arrays with s or u.
func Merge(s State, u Update) State {
	s.Messages = appendCopy(s.Messages, u.Messages)
	s.ResearchData = appendCopy(s.ResearchData, u.ResearchData)
	s.Sources = appendCopy(s.Sources, u.Sources)
	if u.Plan != nil {
		p := *u.Plan
		s.Plan = &p
	}
	if u.CritiqueCount != nil {
		s.CritiqueCount = *u.CritiqueCount
	}
	return s
}

func appendCopy(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// StepEvent is the wire form of one step's output: {"<node>": <update>}.
type StepEvent struct {
	Node   string
	Update Update
}

func (e StepEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Update{e.Node: e.Update})
}

// PlanKeys is the closed, display-ordered set of plan section keys.
var PlanKeys = []string{
	"overview",
	"products_services",
	"markets_customers",
	"opportunities",
	"risks",
	"recommended_actions",
}

var planDescriptions = map[string]string{
	"overview":            "Company overview",
	"products_services":   "Key products and services",
	"markets_customers":   "Target markets and customer segments",
	"opportunities":       "Strategic opportunities",
	"risks":               "Potential risks",
	"recommended_actions": "Recommended next steps",
}

// Plan is the strategic account plan produced by the synthesis step.
type Plan struct {
	Overview           string `json:"overview"`
	ProductsServices   string `json:"products_services"`
	MarketsCustomers   string `json:"markets_customers"`
	Opportunities      string `json:"opportunities"`
	Risks              string `json:"risks"`
	RecommendedActions string `json:"recommended_actions"`
}

// FallbackPlan is the degraded plan returned when synthesis fails.
func FallbackPlan(err error) Plan {
	return Plan{
		Overview:           fmt.Sprintf("Error generating plan: %v", err),
		ProductsServices:   "N/A",
		MarketsCustomers:   "N/A",
		Opportunities:      "N/A",
		Risks:              "N/A",
		RecommendedActions: "N/A",
	}
}

func planFromMap(m map[string]string) Plan {
	return Plan{
		Overview:           m["overview"],
		ProductsServices:   m["products_services"],
		MarketsCustomers:   m["markets_customers"],
		Opportunities:      m["opportunities"],
		Risks:              m["risks"],
		RecommendedActions: m["recommended_actions"],
	}
}

// Section is one titled plan section.
type Section struct {
	Key   string
	Title string
	Body  string
}

var titleCaser = cases.Title(language.English)

// SectionTitle turns a plan key into a display title.
func SectionTitle(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// Sections returns the plan in display order.
func (p Plan) Sections() []Section {
	bodies := []string{p.Overview, p.ProductsServices, p.MarketsCustomers, p.Opportunities, p.Risks, p.RecommendedActions}
	out := make([]Section, len(PlanKeys))
	for i, k := range PlanKeys {
		out[i] = Section{Key: k, Title: SectionTitle(k), Body: bodies[i]}
	}
	return out
}

// Markdown renders the plan as a Markdown document.
func (p Plan) Markdown(company string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Strategic Account Plan: %s\n", company)
	for _, s := range p.Sections() {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", s.Title, strings.TrimSpace(s.Body))
	}
	return b.String()
}
