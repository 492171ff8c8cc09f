package governance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request describes a research run about to start.
type Request struct {
	Company string
	Goals   string
	ChatID  string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

func (r Result) Allowed() bool { return r.Effect != EffectDeny }

// PolicyEngine decides whether a research request may run.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine denies named companies and requests whose company or
// goals match a pattern. Everything else is allowed.
type DefaultPolicyEngine struct {
	DeniedCompanies map[string]bool
	DeniedRegex     []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedCompanies: make(map[string]bool),
		DeniedRegex:     make([]*regexp.Regexp, 0),
	}
}

// DenyCompany blocks research on name. Matching is case-insensitive.
func (e *DefaultPolicyEngine) DenyCompany(name string) {
	e.DeniedCompanies[strings.ToLower(strings.TrimSpace(name))] = true
}

func (e *DefaultPolicyEngine) DenyPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("deny pattern %q: %w", pattern, err)
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.DeniedCompanies[strings.ToLower(strings.TrimSpace(req.Company))] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Research on '%s' is restricted by policy.", req.Company),
		}, nil
	}

	subject := req.Company + " " + req.Goals
	for _, re := range e.DeniedRegex {
		if re.MatchString(subject) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Request matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
