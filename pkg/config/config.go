package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned when a required API key or token is absent.
var ErrMissingCredential = errors.New("missing credential")

// DefaultPath is read when no config path is given. A missing default file
// is not an error.
const DefaultPath = "config.json"

type Config struct {
	App       AppConfig                 `json:"app" yaml:"app"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Search    SearchConfig              `json:"search" yaml:"search"`
	Workflow  WorkflowConfig            `json:"workflow" yaml:"workflow"`
	Gateways  map[string]GatewayConfig  `json:"gateways" yaml:"gateways"`
	Memory    MemoryConfig              `json:"memory" yaml:"memory"`
	Policy    PolicyConfig              `json:"policy" yaml:"policy"`
	Logs      LogsConfig                `json:"logs" yaml:"logs"`
}

type AppConfig struct {
	Name      string `json:"name" yaml:"name"`
	Addr      string `json:"addr" yaml:"addr"`
	// Provider names the reasoning provider; empty picks the first enabled one.
	Provider  string `json:"provider,omitempty" yaml:"provider,omitempty"`
	PromptDir string `json:"prompt_dir,omitempty" yaml:"prompt_dir,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type SearchConfig struct {
	// Provider is auto, tavily or duckduckgo.
	Provider     string `json:"provider" yaml:"provider"`
	TavilyAPIKey string `json:"tavily_api_key" yaml:"tavily_api_key"`
	Depth        string `json:"depth" yaml:"depth"`
	MaxResults   int    `json:"max_results" yaml:"max_results"`
	EnrichPages  bool   `json:"enrich_pages" yaml:"enrich_pages"`
}

type WorkflowConfig struct {
	// StepTimeout is a Go duration string bounding each search or model call.
	StepTimeout string `json:"step_timeout" yaml:"step_timeout"`
	MaxSteps    int    `json:"max_steps" yaml:"max_steps"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type MemoryConfig struct {
	// Path of the sqlite report archive; empty disables archiving.
	Path string `json:"path" yaml:"path"`
}

type PolicyConfig struct {
	DenyCompanies []string `json:"deny_companies" yaml:"deny_companies"`
	DenyPatterns  []string `json:"deny_patterns" yaml:"deny_patterns"`
}

type LogsConfig struct {
	LLMLogPath string `json:"llm_log_path" yaml:"llm_log_path"`
}

// Built-in provider endpoints and models.
var providerDefaults = map[string]ProviderConfig{
	"gemini": {
		Model:   "gemini-2.5-flash",
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
	},
	"openai": {
		Model: "gpt-4o-mini",
	},
	"openrouter": {
		Model:   "google/gemini-2.5-flash",
		BaseURL: "https://openrouter.ai/api/v1",
	},
}

var providerOrder = []string{"gemini", "openai", "openrouter"}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		App:       AppConfig{Name: "scout", Addr: ":8000"},
		Providers: map[string]ProviderConfig{},
		Search:    SearchConfig{Provider: "auto", Depth: "basic", MaxResults: 5},
		Workflow:  WorkflowConfig{StepTimeout: "60s", MaxSteps: 25},
		Gateways:  map[string]GatewayConfig{},
		Logs:      LogsConfig{LLMLogPath: "logs/llm.jsonl"},
	}
}

// Load reads path (JSON, or YAML for .yaml/.yml) over the defaults and then
// applies environment overrides. An empty path reads DefaultPath if it
// exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	for env, name := range map[string]string{
		"GEMINI_API_KEY":     "gemini",
		"OPENAI_API_KEY":     "openai",
		"OPENROUTER_API_KEY": "openrouter",
	} {
		if v := os.Getenv(env); v != "" {
			p := c.Providers[name]
			p.APIKey = v
			p.Enabled = true
			c.Providers[name] = p
		}
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Search.TavilyAPIKey = v
	}
	if v := os.Getenv("SCOUT_ADDR"); v != "" {
		c.App.Addr = v
	}
	for env, name := range map[string]string{
		"TELEGRAM_TOKEN": "telegram",
		"DISCORD_TOKEN":  "discord",
	} {
		if v := os.Getenv(env); v != "" {
			g := c.Gateways[name]
			g.Token = v
			g.Enabled = true
			c.Gateways[name] = g
		}
	}
}

func (c *Config) fillDefaults() {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	if c.Gateways == nil {
		c.Gateways = map[string]GatewayConfig{}
	}
	for name, p := range c.Providers {
		d := providerDefaults[name]
		if p.Model == "" {
			p.Model = d.Model
		}
		if p.BaseURL == "" {
			p.BaseURL = d.BaseURL
		}
		c.Providers[name] = p
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "auto"
	}
}

// DefaultProvider returns the configured provider, or the first enabled one
// in preference order.
func (c *Config) DefaultProvider() (string, ProviderConfig) {
	if name := c.App.Provider; name != "" {
		p, ok := c.Providers[name]
		if !ok {
			p = providerDefaults[name]
		}
		return name, p
	}
	for _, name := range providerOrder {
		if p, ok := c.Providers[name]; ok && p.Enabled {
			return name, p
		}
	}
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "gemini", providerDefaults["gemini"]
}

// SearchProvider resolves "auto" to a concrete backend name.
func (c *Config) SearchProvider() string {
	if c.Search.Provider != "auto" {
		return c.Search.Provider
	}
	if c.Search.TavilyAPIKey != "" {
		return "tavily"
	}
	return "duckduckgo"
}

// StepTimeout parses workflow.step_timeout. Zero means unbounded.
func (c *Config) StepTimeout() (time.Duration, error) {
	if c.Workflow.StepTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Workflow.StepTimeout)
	if err != nil {
		return 0, fmt.Errorf("workflow.step_timeout: %w", err)
	}
	return d, nil
}

// Validate checks the settings needed to run research.
func (c *Config) Validate() error {
	var errs []error

	name, p := c.DefaultProvider()
	if p.APIKey == "" {
		errs = append(errs, fmt.Errorf("%w: provider %q has no api key (set %s_API_KEY)", ErrMissingCredential, name, strings.ToUpper(name)))
	}

	switch c.SearchProvider() {
	case "duckduckgo":
	case "tavily":
		if c.Search.TavilyAPIKey == "" {
			errs = append(errs, fmt.Errorf("%w: search provider tavily needs TAVILY_API_KEY", ErrMissingCredential))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown search provider %q", c.Search.Provider))
	}

	if _, err := c.StepTimeout(); err != nil {
		errs = append(errs, err)
	}
	for gw, g := range c.Gateways {
		if g.Enabled && g.Token == "" {
			errs = append(errs, fmt.Errorf("%w: gateway %s is enabled without a token", ErrMissingCredential, gw))
		}
	}
	return errors.Join(errs...)
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	return c.gateway("telegram")
}

// GetDiscordConfig returns discord config if enabled
func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	return c.gateway("discord")
}

func (c *Config) gateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled {
		return g, true
	}
	return GatewayConfig{}, false
}
