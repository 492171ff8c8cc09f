package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// extractJSON returns the body of a ```json fenced block when the model
// wrapped its answer in one, otherwise the whole text.
func extractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// Critique is the model's assessment of the gathered research.
type Critique struct {
	HasConflicts        bool    `json:"has_conflicts"`
	ConflictDescription *string `json:"conflict_description"`
	NeedsMoreResearch   bool    `json:"needs_more_research"`
	QualityScore        int     `json:"quality_score"`
}

// DefaultCritique is used when the model's answer cannot be decoded: no
// conflicts, nothing to report.
func DefaultCritique() Critique {
	return Critique{}
}

func ParseCritique(text string) (Critique, error) {
	var c Critique
	if err := json.Unmarshal([]byte(extractJSON(text)), &c); err != nil {
		return DefaultCritique(), fmt.Errorf("decode critique: %w", err)
	}
	return c, nil
}

// ParsePlan decodes a plan and requires every section key to be present as a
// string.
func ParsePlan(text string) (Plan, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	values := make(map[string]string, len(PlanKeys))
	var missing []string
	for _, k := range PlanKeys {
		v, ok := raw[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		var s string
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Plan{}, fmt.Errorf("plan section %q is null", k)
		}
		if err := json.Unmarshal(v, &s); err != nil {
			return Plan{}, fmt.Errorf("plan section %q is not a string", k)
		}
		values[k] = s
	}
	if len(missing) > 0 {
		return Plan{}, fmt.Errorf("plan is missing sections: %s", strings.Join(missing, ", "))
	}
	return planFromMap(values), nil
}

// ParseIntent decodes an intent classification and fills documented defaults.
func ParseIntent(text string) (Intent, error) {
	var in Intent
	if err := json.Unmarshal([]byte(extractJSON(text)), &in); err != nil {
		return Intent{}, fmt.Errorf("decode intent: %w", err)
	}
	in.Company = strings.TrimSpace(in.Company)
	if in.Company == "" {
		in.Company = UnknownCompany
	}
	if strings.TrimSpace(in.Goals) == "" {
		in.Goals = DefaultGoals
	}
	return in, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
