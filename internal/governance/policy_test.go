package governance

import (
	"context"
	"testing"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	// Allowed by default
	res, err := engine.Evaluate(ctx, Request{Company: "Acme", Goals: "general overview"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectAllow || !res.Allowed() {
		t.Errorf("Expected EffectAllow, got %s", res.Effect)
	}

	// Denied company, case-insensitive
	engine.DenyCompany("Initech")
	res, err = engine.Evaluate(ctx, Request{Company: "initech"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res.Effect)
	}
	if res.Reason != "Research on 'initech' is restricted by policy." {
		t.Errorf("unexpected reason %q", res.Reason)
	}
}

func TestDefaultPolicyEngine_DenyPattern(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	if err := engine.DenyPattern(`(?i)home address`); err != nil {
		t.Fatalf("DenyPattern failed: %v", err)
	}
	res, _ := engine.Evaluate(context.Background(), Request{Company: "Acme", Goals: "the CEO's home address"})
	if res.Allowed() {
		t.Error("expected pattern match to deny the request")
	}

	if err := engine.DenyPattern("("); err == nil {
		t.Error("expected invalid pattern to be rejected")
	}
}
