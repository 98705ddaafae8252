package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Host     string `yaml:"host" env:"HOST_PROVIDER,overwrite"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL,overwrite"`
	LogFile  string `yaml:"log_file" env:"LOG_FILE,overwrite"`

	GitHub GitHubConfig `yaml:"github"`
	Gitea  GiteaConfig  `yaml:"gitea"`

	LLM     LLMConfig     `yaml:"llm"`
	Agent   AgentConfig   `yaml:"agent"`
	Review  ReviewConfig  `yaml:"review"`
	Retry   RetryConfig   `yaml:"retry"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type GitHubConfig struct {
	Token  string `yaml:"token" env:"GITHUB_TOKEN,overwrite"`
	Repo   string `yaml:"repo" env:"GITHUB_REPO,overwrite"`
	APIURL string `yaml:"api_url" env:"GITHUB_API_URL,overwrite"`
}

type GiteaConfig struct {
	URL   string `yaml:"url" env:"GITEA_URL,overwrite"`
	Token string `yaml:"token" env:"GITEA_TOKEN,overwrite"`
	Repo  string `yaml:"repo" env:"GITEA_REPO,overwrite"`
}

// LLMConfig selects and configures the model backend
type LLMConfig struct {
	Provider  string        `yaml:"provider" env:"LLM_PROVIDER,overwrite"`
	Timeout   time.Duration `yaml:"timeout" env:"LLM_TIMEOUT,overwrite"`
	MaxTokens int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS,overwrite"`

	OpenAI    OpenAIConfig    `yaml:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Yandex    YandexConfig    `yaml:"yandex"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY,overwrite"`
	Model   string `yaml:"model" env:"OPENAI_MODEL,overwrite"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL,overwrite"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY,overwrite"`
	Model  string `yaml:"model" env:"GEMINI_MODEL,overwrite"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key" env:"ANTHROPIC_API_KEY,overwrite"`
	Model  string `yaml:"model" env:"ANTHROPIC_MODEL,overwrite"`
}

type YandexConfig struct {
	APIKey   string `yaml:"api_key" env:"YANDEX_API_KEY,overwrite"`
	FolderID string `yaml:"folder_id" env:"YANDEX_FOLDER_ID,overwrite"`
	Model    string `yaml:"model" env:"YANDEX_MODEL,overwrite"`
	Endpoint string `yaml:"endpoint" env:"YANDEX_ENDPOINT,overwrite"`
}

// AgentConfig controls branch naming, iteration limits and demo mode
type AgentConfig struct {
	MaxIterations  int    `yaml:"max_iterations" env:"MAX_ITERATIONS,overwrite"`
	BranchPrefix   string `yaml:"branch_prefix" env:"AGENT_BRANCH_PREFIX,overwrite"`
	BaseBranch     string `yaml:"base_branch" env:"BASE_BRANCH,overwrite"`
	DemoMode       bool   `yaml:"demo_mode" env:"DEMO_MODE,overwrite"`
	StructureDepth int    `yaml:"structure_depth"`
	AuthorName     string `yaml:"author_name" env:"GIT_AUTHOR_NAME,overwrite"`
	AuthorEmail    string `yaml:"author_email" env:"GIT_AUTHOR_EMAIL,overwrite"`
}

type ReviewConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLE_CODE_REVIEW,overwrite"`
	CIAnalysis bool `yaml:"ci_analysis" env:"ENABLE_CI_ANALYSIS,overwrite"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	RateLimitRetry time.Duration `yaml:"rate_limit_retry"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile" env:"METRICS_TEXTFILE,overwrite"`
}

// DefaultConfig returns the configuration used when no file or variable
// overrides a field
func DefaultConfig() *Config {
	return &Config{
		Host:     "github",
		LogLevel: "INFO",
		LLM: LLMConfig{
			Provider:  "openai",
			Timeout:   120 * time.Second,
			MaxTokens: 4000,
			OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
			Gemini:    GeminiConfig{Model: "gemini-1.5-flash"},
			Anthropic: AnthropicConfig{Model: "claude-sonnet-4-5"},
			Yandex:    YandexConfig{Model: "yandexgpt-lite"},
		},
		Agent: AgentConfig{
			MaxIterations:  5,
			BranchPrefix:   "agent/",
			BaseBranch:     "main",
			StructureDepth: 3,
			AuthorName:     "code-agent",
			AuthorEmail:    "code-agent@users.noreply.github.com",
		},
		Review: ReviewConfig{
			Enabled:    true,
			CIAnalysis: true,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			BackoffBase:    2 * time.Second,
			RateLimitRetry: 30 * time.Second,
		},
	}
}

// configNames are tried in order when no explicit config path is given
var configNames = []string{".code-agent.yaml", "code-agent.yaml"}

// FindConfigPath returns the first config file found in dirs, or "".
func FindConfigPath(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Load builds the configuration from defaults, the YAML file at path (if
// any), a .env file in envDir (if any) and the process environment, in
// increasing order of precedence.
func Load(ctx context.Context, path, envDir string) (*Config, error) {
	dotenv, err := readDotenv(envDir)
	if err != nil {
		return nil, err
	}
	lookuper := envconfig.MultiLookuper(envconfig.OsLookuper(), envconfig.MapLookuper(dotenv))
	return load(ctx, path, lookuper)
}

func load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		data = expandEnvVars(data, lookuper)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	cfg.Host = strings.ToLower(cfg.Host)
	return cfg, nil
}

// readDotenv parses dir/.env without touching the process environment
func readDotenv(dir string) (map[string]string, error) {
	if dir == "" {
		return map[string]string{}, nil
	}
	p := filepath.Join(dir, ".env")
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	vals, err := godotenv.Read(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return vals, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with its value; unknown variables are kept
func expandEnvVars(data []byte, lookuper envconfig.Lookuper) []byte {
	return envRef.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(envRef.FindSubmatch(match)[1])
		if v, ok := lookuper.Lookup(name); ok {
			return []byte(v)
		}
		return match
	})
}
