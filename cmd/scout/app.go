package main

import (
	"fmt"
	"io"
	"log"

	"github.com/rahul/scout/internal/agent"
	"github.com/rahul/scout/internal/governance"
	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/store"
	"github.com/rahul/scout/internal/tools"
	"github.com/rahul/scout/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg       *config.Config
	logger    *observability.Logger
	assistant *agent.Assistant
	reports   *store.ReportStore
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads config and wires the assistant. Structured events go to
// logOut.
func newApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLoggerWithOutput(logOut, cfg.Logs.LLMLogPath)

	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}
	searcher, err := newSearcher(cfg)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.StepTimeout()
	if err != nil {
		return nil, err
	}

	prompts := agent.NewPromptManager(cfg.App.PromptDir)
	workflow, err := agent.NewWorkflow(model, searcher,
		agent.WithLogger(logger),
		agent.WithPrompts(prompts),
		agent.WithStepTimeout(timeout),
		agent.WithMaxSteps(cfg.Workflow.MaxSteps),
	)
	if err != nil {
		return nil, err
	}

	gov := governance.NewDefaultPolicyEngine()
	for _, c := range cfg.Policy.DenyCompanies {
		gov.DenyCompany(c)
	}
	for _, p := range cfg.Policy.DenyPatterns {
		if err := gov.DenyPattern(p); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, logger: logger}
	a.assistant = &agent.Assistant{
		Intents:  &agent.IntentParser{Model: model, Prompts: prompts, Logger: logger, Timeout: timeout},
		Workflow: workflow,
		Policy:   gov,
		Logger:   logger,
	}
	if cfg.Memory.Path != "" {
		reports, err := store.NewReportStore(cfg.Memory.Path)
		if err != nil {
			return nil, err
		}
		a.reports = reports
		a.assistant.Archive = reports
	}
	return a, nil
}

func (a *app) Close() {
	if a.reports != nil {
		a.reports.Close()
	}
}

func newModel(cfg *config.Config) (llms.Model, error) {
	name, p := cfg.DefaultProvider()
	switch name {
	case "gemini", "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		log.Printf("Reasoning provider: %s (%s)", name, p.Model)
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s not supported", name)
	}
}

func newSearcher(cfg *config.Config) (tools.Searcher, error) {
	registry := tools.NewRegistry()

	ddg, err := tools.NewDuckDuckGo(cfg.Search.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("init duckduckgo: %w", err)
	}
	registry.Register(ddg)
	if cfg.Search.TavilyAPIKey != "" {
		registry.Register(tools.NewTavily(cfg.Search.TavilyAPIKey, cfg.Search.Depth, cfg.Search.MaxResults))
	}

	name := cfg.SearchProvider()
	s := registry.Get(name)
	if s == nil {
		return nil, fmt.Errorf("search provider %q is not available (have %v)", name, registry.Names())
	}
	if cfg.Search.EnrichPages {
		s = tools.NewEnricher(s, tools.NewPageReader(0))
	}
	log.Printf("Information source: %s", s.Name())
	return s, nil
}

func openReports(configPath string) (*store.ReportStore, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Memory.Path == "" {
		return nil, fmt.Errorf("report archive is disabled (set memory.path)")
	}
	return store.NewReportStore(cfg.Memory.Path)
}
