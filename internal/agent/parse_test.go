package agent

import (
	"strings"
	"testing"
)

func TestParseCritique(t *testing.T) {
	c, err := ParseCritique("Here you go:\n```json\n{\"has_conflicts\": true, \"conflict_description\": \"revenue differs\", \"quality_score\": 6}\n```")
	if err != nil {
		t.Fatalf("ParseCritique: %v", err)
	}
	if !c.HasConflicts || c.ConflictDescription == nil || *c.ConflictDescription != "revenue differs" || c.QualityScore != 6 {
		t.Errorf("unexpected critique %+v", c)
	}

	c, err = ParseCritique("looks fine to me")
	if err == nil {
		t.Fatal("expected decode error for prose")
	}
	if c != DefaultCritique() {
		t.Errorf("expected default critique, got %+v", c)
	}
}

func TestParsePlan_Strict(t *testing.T) {
	if _, err := ParsePlan(planJSON); err != nil {
		t.Fatalf("valid plan rejected: %v", err)
	}

	_, err := ParsePlan(`{"overview": "x"}`)
	if err == nil || !strings.Contains(err.Error(), "risks") {
		t.Errorf("expected missing sections error, got %v", err)
	}

	_, err = ParsePlan(`{"overview": 1, "products_services": "", "markets_customers": "", "opportunities": "", "risks": "", "recommended_actions": ""}`)
	if err == nil {
		t.Error("expected non-string section to be rejected")
	}

	_, err = ParsePlan(`{"overview": null, "products_services": "", "markets_customers": "", "opportunities": "", "risks": "", "recommended_actions": ""}`)
	if err == nil || !strings.Contains(err.Error(), "overview") {
		t.Errorf("expected null section to be rejected, got %v", err)
	}
}

func TestParseIntent_Defaults(t *testing.T) {
	in, err := ParseIntent(`{"wants_research": true, "company": " ", "goals": "", "needs_clarification": false, "clarifying_question": null}`)
	if err != nil {
		t.Fatalf("ParseIntent: %v", err)
	}
	if in.Company != UnknownCompany || in.Goals != DefaultGoals {
		t.Errorf("defaults not applied: %+v", in)
	}
	if in.ClarifyingQuestion != nil {
		t.Errorf("expected no question, got %q", *in.ClarifyingQuestion)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}
