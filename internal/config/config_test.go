package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := load(context.Background(), "", envconfig.MapLookuper(nil))
	require.NoError(t, err)

	if cfg.Agent.MaxIterations != 5 {
		t.Errorf("expected max_iterations 5, got %d", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.BranchPrefix != "agent/" {
		t.Errorf("expected branch prefix agent/, got %q", cfg.Agent.BranchPrefix)
	}
	if cfg.Agent.BaseBranch != "main" {
		t.Errorf("expected base branch main, got %q", cfg.Agent.BaseBranch)
	}
	if cfg.Agent.DemoMode {
		t.Error("expected demo mode off by default")
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("unexpected llm defaults: %+v", cfg.LLM)
	}
}

func TestLoad_YAMLWithExpansion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "code-agent.yaml", `
host: github
log_level: debug
github:
  repo: acme/widgets
  token: ${TOKEN_FROM_ENV}
llm:
  provider: Yandex
  timeout: 45s
  yandex:
    api_key: ${MISSING_VAR}
    folder_id: b1g
agent:
  max_iterations: 2
  branch_prefix: bot/
`)
	lookuper := envconfig.MapLookuper(map[string]string{"TOKEN_FROM_ENV": "ghp_x"})

	cfg, err := load(context.Background(), path, lookuper)
	require.NoError(t, err)

	if cfg.GitHub.Token != "ghp_x" {
		t.Errorf("expected expanded token, got %q", cfg.GitHub.Token)
	}
	if cfg.LLM.Yandex.APIKey != "${MISSING_VAR}" {
		t.Errorf("expected unknown variable kept, got %q", cfg.LLM.Yandex.APIKey)
	}
	if cfg.LLM.Provider != "yandex" {
		t.Errorf("expected provider normalized to yandex, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.LLM.Timeout)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("expected DEBUG, got %q", cfg.LogLevel)
	}
	if cfg.Agent.MaxIterations != 2 || cfg.Agent.BranchPrefix != "bot/" {
		t.Errorf("unexpected agent config: %+v", cfg.Agent)
	}
	if cfg.Agent.BaseBranch != "main" {
		t.Errorf("expected default base branch kept, got %q", cfg.Agent.BaseBranch)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "code-agent.yaml", `
agent:
  max_iterations: 2
  demo_mode: false
`)
	lookuper := envconfig.MapLookuper(map[string]string{
		"MAX_ITERATIONS":      "9",
		"DEMO_MODE":           "true",
		"AGENT_BRANCH_PREFIX": "auto/",
		"OPENAI_API_KEY":      "sk-test",
	})

	cfg, err := load(context.Background(), path, lookuper)
	require.NoError(t, err)

	if cfg.Agent.MaxIterations != 9 {
		t.Errorf("expected env max_iterations 9, got %d", cfg.Agent.MaxIterations)
	}
	if !cfg.Agent.DemoMode {
		t.Error("expected DEMO_MODE to enable demo mode")
	}
	if cfg.Agent.BranchPrefix != "auto/" {
		t.Errorf("expected prefix auto/, got %q", cfg.Agent.BranchPrefix)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected api key from env, got %q", cfg.LLM.OpenAI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), envconfig.MapLookuper(nil))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadDotenv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "YANDEX_FOLDER_ID=folder-1\n# comment\nLLM_PROVIDER=yandex\n")

	vals, err := readDotenv(dir)
	require.NoError(t, err)
	if vals["YANDEX_FOLDER_ID"] != "folder-1" || vals["LLM_PROVIDER"] != "yandex" {
		t.Errorf("unexpected dotenv values: %v", vals)
	}

	empty, err := readDotenv(t.TempDir())
	require.NoError(t, err)
	if len(empty) != 0 {
		t.Errorf("expected no values without .env, got %v", empty)
	}
}

func TestFindConfigPath(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := writeFile(t, second, "code-agent.yaml", "host: github\n")

	if got := FindConfigPath(first, second); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got := FindConfigPath(first); got != "" {
		t.Errorf("expected no config, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{
			name:   "valid openai",
			mutate: func(c *Config) { c.LLM.OpenAI.APIKey = "sk" },
		},
		{
			name:   "missing openai key",
			mutate: func(c *Config) {},
			fields: []string{"llm.openai.api_key"},
		},
		{
			name: "yandex needs folder",
			mutate: func(c *Config) {
				c.LLM.Provider = "yandex"
				c.LLM.Yandex.APIKey = "k"
			},
			fields: []string{"llm.yandex.folder_id"},
		},
		{
			name: "bad repo and iterations",
			mutate: func(c *Config) {
				c.LLM.OpenAI.APIKey = "sk"
				c.GitHub.Repo = "no-slash"
				c.Agent.MaxIterations = 0
			},
			fields: []string{"github.repo", "agent.max_iterations"},
		},
		{
			name: "gitea requires url and token",
			mutate: func(c *Config) {
				c.LLM.OpenAI.APIKey = "sk"
				c.Host = "gitea"
			},
			fields: []string{"gitea.url", "gitea.token"},
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.LLM.Provider = "llama"
			},
			fields: []string{"llm.provider"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			errs := Validate(cfg)

			var got []string
			for _, err := range errs {
				var ve ValidationError
				require.True(t, errors.As(err, &ve), "unexpected error type %T", err)
				got = append(got, ve.Field)
			}
			if len(got) != len(tt.fields) {
				t.Fatalf("expected fields %v, got %v", tt.fields, got)
			}
			for i := range got {
				if got[i] != tt.fields[i] {
					t.Errorf("expected field %s, got %s", tt.fields[i], got[i])
				}
			}
		})
	}
}
