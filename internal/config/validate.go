package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors. Credentials that can be
// discovered later (GitHub token via gh, repo via the git remote) are not
// required here.
func Validate(cfg *Config) []error {
	var errs []error

	switch cfg.Host {
	case "github":
		if cfg.GitHub.Repo != "" && !validRepoSlug(cfg.GitHub.Repo) {
			errs = append(errs, ValidationError{"github.repo", "must be in owner/repo format"})
		}
	case "gitea":
		if cfg.Gitea.URL == "" {
			errs = append(errs, ValidationError{"gitea.url", "required when host is gitea"})
		}
		if cfg.Gitea.Token == "" {
			errs = append(errs, ValidationError{"gitea.token", "required when host is gitea"})
		}
		if cfg.Gitea.Repo != "" && !validRepoSlug(cfg.Gitea.Repo) {
			errs = append(errs, ValidationError{"gitea.repo", "must be in owner/repo format"})
		}
	default:
		errs = append(errs, ValidationError{"host", "must be 'github' or 'gitea'"})
	}

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAI.APIKey == "" {
			errs = append(errs, ValidationError{"llm.openai.api_key", "required when provider is openai"})
		}
	case "gemini":
		if cfg.LLM.Gemini.APIKey == "" {
			errs = append(errs, ValidationError{"llm.gemini.api_key", "required when provider is gemini"})
		}
	case "anthropic":
		if cfg.LLM.Anthropic.APIKey == "" {
			errs = append(errs, ValidationError{"llm.anthropic.api_key", "required when provider is anthropic"})
		}
	case "yandex":
		if cfg.LLM.Yandex.APIKey == "" {
			errs = append(errs, ValidationError{"llm.yandex.api_key", "required when provider is yandex"})
		}
		if cfg.LLM.Yandex.FolderID == "" {
			errs = append(errs, ValidationError{"llm.yandex.folder_id", "required when provider is yandex"})
		}
	default:
		errs = append(errs, ValidationError{"llm.provider", "must be one of openai, gemini, anthropic, yandex"})
	}

	if cfg.LLM.Timeout <= 0 {
		errs = append(errs, ValidationError{"llm.timeout", "must be positive"})
	}
	if cfg.Agent.MaxIterations < 1 {
		errs = append(errs, ValidationError{"agent.max_iterations", "must be at least 1"})
	}
	if cfg.Agent.StructureDepth < 0 {
		errs = append(errs, ValidationError{"agent.structure_depth", "must not be negative"})
	}
	if cfg.Agent.BaseBranch == "" {
		errs = append(errs, ValidationError{"agent.base_branch", "required"})
	}

	switch cfg.LogLevel {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, ValidationError{"log_level", "must be DEBUG, INFO, WARNING or ERROR"})
	}

	return errs
}

func validRepoSlug(s string) bool {
	owner, name, ok := strings.Cut(s, "/")
	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}
