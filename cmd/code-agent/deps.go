package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/cli/go-gh/v2/pkg/repository"

	"github.com/sallandpioneers/code-agent/internal/config"
	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/llm"
	"github.com/sallandpioneers/code-agent/internal/metrics"
	"github.com/sallandpioneers/code-agent/internal/orchestrator"
	"github.com/sallandpioneers/code-agent/internal/retry"
	"github.com/sallandpioneers/code-agent/internal/workspace"
)

const hostTimeout = 60 * time.Second

// app holds everything a command needs, built once from the configuration
type app struct {
	cfg     *config.Config
	orch    *orchestrator.Orchestrator
	metrics *metrics.Recorder
	cleanup func()
}

// setup loads the configuration, creates the logger and wires the ports.
// The returned context carries the logger.
func setup(ctx context.Context) (context.Context, *app, error) {
	root, err := resolveRepoPath(repoPath)
	if err != nil {
		return ctx, nil, err
	}

	path := configPath
	if path == "" {
		cwd, _ := os.Getwd()
		path = config.FindConfigPath(root, cwd)
	}
	cfg, err := config.Load(ctx, path, root)
	if err != nil {
		return ctx, nil, err
	}
	applyFlags(cfg)

	logger, cleanup, err := setupLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	ctx = clog.WithLogger(ctx, logger)
	if path != "" {
		logger.Debugf("Loaded config from %s", path)
	}

	a, err := wire(ctx, cfg, root)
	if err != nil {
		cleanup()
		return ctx, nil, err
	}
	a.cleanup = cleanup
	return ctx, a, nil
}

func wire(ctx context.Context, cfg *config.Config, root string) (*app, error) {
	log := clog.FromContext(ctx)

	if cfg.Host == "github" && cfg.GitHub.Token == "" {
		if token, source := auth.TokenForHost(githubHostname(cfg.GitHub.APIURL)); token != "" {
			log.Debugf("Using GitHub token from %s", source)
			cfg.GitHub.Token = token
		}
	}

	ws, err := workspace.Open(root, workspace.Options{
		Token:       hostToken(cfg),
		AuthorName:  cfg.Agent.AuthorName,
		AuthorEmail: cfg.Agent.AuthorEmail,
	})
	if err != nil {
		return nil, err
	}

	if err := inferRepo(cfg, ws); err != nil {
		return nil, err
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n%w", errors.Join(errs...))
	}

	recorder := metrics.New()

	h, err := newHost(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model, err := newModel(ctx, cfg, recorder)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using host %s and model backend %s", h.Name(), model.Name())

	return &app{
		cfg:     cfg,
		orch:    orchestrator.New(cfg, h, ws, llm.NewService(model, cfg.LLM.MaxTokens)),
		metrics: recorder,
	}, nil
}

// close flushes metrics and releases the log file
func (a *app) close(ctx context.Context) {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		clog.FromContext(ctx).Warnf("Failed to write metrics: %v", err)
	}
	a.cleanup()
}

func (a *app) observe(command string, start time.Time, success bool, files int) {
	a.metrics.ObserveRun(command, success, time.Since(start), files)
}

func resolveRepoPath(p string) (string, error) {
	if p == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		p = cwd
	}
	root, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	return root, nil
}

// applyFlags lets command-line flags override the loaded configuration
func applyFlags(cfg *config.Config) {
	if logLevel != "" {
		cfg.LogLevel = strings.ToUpper(logLevel)
	}
	if verbose {
		cfg.LogLevel = "DEBUG"
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
}

func hostToken(cfg *config.Config) string {
	if cfg.Host == "gitea" {
		return cfg.Gitea.Token
	}
	return cfg.GitHub.Token
}

// githubHostname returns the host gh stores credentials under
func githubHostname(apiURL string) string {
	if apiURL == "" {
		return "github.com"
	}
	u, err := url.Parse(apiURL)
	if err != nil || u.Hostname() == "" {
		return "github.com"
	}
	return u.Hostname()
}

// inferRepo fills in the owner/repo slug from the origin remote when the
// configuration leaves it empty
func inferRepo(cfg *config.Config, ws *workspace.Workspace) error {
	slug := &cfg.GitHub.Repo
	if cfg.Host == "gitea" {
		slug = &cfg.Gitea.Repo
	}
	if *slug != "" {
		return nil
	}

	remote, err := ws.RemoteURL()
	if err != nil {
		return fmt.Errorf("no repository configured and none could be inferred: %w", err)
	}
	repo, err := repository.Parse(remote)
	if err != nil {
		return fmt.Errorf("failed to infer repository from %s: %w", remote, err)
	}
	*slug = repo.Owner + "/" + repo.Name
	return nil
}

func newHost(ctx context.Context, cfg *config.Config) (host.Host, error) {
	switch cfg.Host {
	case "gitea":
		return host.NewGitea(cfg.Gitea.URL, cfg.Gitea.Token, cfg.Gitea.Repo, hostTimeout,
			retry.FromConfig(cfg.Retry, retry.ClassifyHTTPError))
	case "github":
		return host.NewGitHub(ctx, cfg.GitHub.Token, cfg.GitHub.Repo, cfg.GitHub.APIURL, hostTimeout)
	default:
		return nil, fmt.Errorf("unsupported host: %s", cfg.Host)
	}
}

// newModel builds the configured backend. Every attempt is reported to the
// recorder; retries wrap the observed backend.
func newModel(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder) (llm.Provider, error) {
	backend, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	observed := llm.WithObserver(backend, recorder.ObserveModelCall)
	return llm.WithRetry(observed, retry.FromConfig(cfg.Retry, retry.ClassifyModel)), nil
}

// parseNumber parses a positive issue or PR number argument
func parseNumber(arg, what string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s number %q", what, arg)
	}
	return n, nil
}
