package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "TAVILY_API_KEY", "SCOUT_ADDR", "TELEGRAM_TOKEN", "DISCORD_TOKEN"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{
		"app": {"name": "scout", "addr": ":9000"},
		"providers": {"openai": {"api_key": "sk-test", "enabled": true}},
		"search": {"provider": "duckduckgo"},
		"workflow": {"step_timeout": "15s"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.App.Addr)
	}
	name, p := cfg.DefaultProvider()
	if name != "openai" || p.APIKey != "sk-test" || p.Model != "gpt-4o-mini" {
		t.Errorf("unexpected provider %s %+v", name, p)
	}
	if d, _ := cfg.StepTimeout(); d != 15*time.Second {
		t.Errorf("step timeout = %v", d)
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("defaults lost: max_results = %d", cfg.Search.MaxResults)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
providers:
  gemini:
    api_key: g-key
    enabled: true
search:
  provider: tavily
  tavily_api_key: tv-key
  enrich_pages: true
policy:
  deny_companies: [Initech]
memory:
  path: data/reports.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	name, p := cfg.DefaultProvider()
	if name != "gemini" || p.Model != "gemini-2.5-flash" || p.BaseURL == "" {
		t.Errorf("unexpected provider %s %+v", name, p)
	}
	if cfg.SearchProvider() != "tavily" || !cfg.Search.EnrichPages {
		t.Errorf("unexpected search config %+v", cfg.Search)
	}
	if len(cfg.Policy.DenyCompanies) != 1 || cfg.Memory.Path != "data/reports.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("TAVILY_API_KEY", "tv")
	t.Setenv("SCOUT_ADDR", ":7000")
	t.Setenv("TELEGRAM_TOKEN", "tg")

	cfg, err := Load(writeFile(t, "config.json", `{"app": {"addr": ":9000"}}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, p := cfg.DefaultProvider(); p.APIKey != "from-env" {
		t.Errorf("api key = %q", p.APIKey)
	}
	if cfg.App.Addr != ":7000" {
		t.Errorf("addr = %q", cfg.App.Addr)
	}
	if cfg.SearchProvider() != "tavily" {
		t.Errorf("auto search should pick tavily when a key is set, got %s", cfg.SearchProvider())
	}
	if tg, ok := cfg.GetTelegramConfig(); !ok || tg.Token != "tg" {
		t.Errorf("telegram not enabled: %+v", tg)
	}
	if _, ok := cfg.GetDiscordConfig(); ok {
		t.Error("discord should be disabled")
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for explicit missing file")
	}

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should load defaults: %v", err)
	}
	if cfg.SearchProvider() != "duckduckgo" {
		t.Errorf("expected duckduckgo without a tavily key, got %s", cfg.SearchProvider())
	}
}

func TestValidate_MissingCredential(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}

	cfg.Providers["gemini"] = ProviderConfig{APIKey: "k", Enabled: true}
	cfg.Search.Provider = "bing"
	if err := cfg.Validate(); err == nil || errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected unknown search provider error, got %v", err)
	}

	cfg.Search.Provider = "auto"
	cfg.Gateways["discord"] = GatewayConfig{Enabled: true}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected missing gateway token error, got %v", err)
	}
}
