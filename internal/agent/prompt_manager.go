package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/tmc/langchaingo/prompts"
)

const (
	PromptIntent     = "intent"
	PromptCritique   = "critique"
	PromptSynthesize = "synthesize"
)

const intentPrompt = `You are a helpful research assistant. Analyze this user message and determine:
1. Is the user asking to research a company? (yes/no)
2. What is the company name? (extract it, or say "unknown")
3. What are their research goals? (extract specific interests, or say "general overview")
4. Should we ask a clarifying question? (yes/no, and what question)

Previous conversation:
{{.context}}

User message: {{.message}}

Respond in JSON format:
{
    "wants_research": true/false,
    "company": "company name or unknown",
    "goals": "specific goals or general overview",
    "needs_clarification": true/false,
    "clarifying_question": "question to ask or null"
}
`

const critiquePrompt = `Analyze this research data about {{.company}}. Check for:
1. Conflicting information (e.g., different revenue numbers)
2. Missing critical information
3. Outdated data

Research Data:
{{.data}}

Respond in JSON:
{
    "has_conflicts": true/false,
    "conflict_description": "brief description or null",
    "needs_more_research": true/false,
    "quality_score": 1-10
}
`

const synthesizePrompt = `You are an expert Business Strategist.
Based on the following research about {{.company}}:
{{.data}}

Generate a comprehensive Strategic Account Plan.
{{.format_instructions}}

Ensure the content is professional, detailed, and actionable.
`

var builtinPrompts = map[string]struct {
	text string
	vars []string
}{
	PromptIntent:     {intentPrompt, []string{"context", "message"}},
	PromptCritique:   {critiquePrompt, []string{"company", "data"}},
	PromptSynthesize: {synthesizePrompt, []string{"company", "data"}},
}

// PromptManager resolves prompt templates. A file named <name>.md in
// Directory replaces the built-in template of the same name.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// Template returns the go-template prompt registered under name.
func (pm *PromptManager) Template(name string) (prompts.PromptTemplate, error) {
	builtin, ok := builtinPrompts[name]
	if !ok {
		return prompts.PromptTemplate{}, fmt.Errorf("unknown prompt %q", name)
	}
	text := builtin.text

	if pm != nil && pm.Directory != "" {
		path := filepath.Join(pm.Directory, name+".md")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text = string(data)
		case !errors.Is(err, fs.ErrNotExist):
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
		}
	}
	return prompts.NewPromptTemplate(text, builtin.vars), nil
}

// Render formats the named prompt with values.
func (pm *PromptManager) Render(name string, values map[string]any) (string, error) {
	tmpl, err := pm.Template(name)
	if err != nil {
		return "", err
	}
	out, err := tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return out, nil
}
