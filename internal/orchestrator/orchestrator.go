// Package orchestrator drives the agent's runs: issue to pull request, review
// feedback to fix commits, and pull request to review comment.
package orchestrator

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"github.com/sallandpioneers/code-agent/internal/config"
	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/llm"
	"github.com/sallandpioneers/code-agent/internal/workflow"
)

// Repository is the local working copy the agent edits. The working copy is
// owned by a single run; nothing here is safe for concurrent use.
type Repository interface {
	workflow.FileStore

	Root() string
	CheckoutAndSync(ctx context.Context, branch string) error
	CreateBranch(ctx context.Context, name, base string) error
	Commit(ctx context.Context, message string, paths []string) error
	Push(ctx context.Context, branch string) error
	ListStructure(maxDepth int) (string, error)
	Diff(ctx context.Context, base string) (string, error)
}

// Orchestrator coordinates the host, the working copy and the model for one
// repository
type Orchestrator struct {
	config *config.Config
	host   host.Host
	repo   Repository
	llm    *llm.Service

	now   func() time.Time
	newID func() string
}

// New creates a new orchestrator. cfg is read, never modified.
func New(cfg *config.Config, h host.Host, repo Repository, svc *llm.Service) *Orchestrator {
	return &Orchestrator{
		config: cfg,
		host:   h,
		repo:   repo,
		llm:    svc,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// startRun assigns a run id and attaches it, with attrs, to the context logger
func (o *Orchestrator) startRun(ctx context.Context, attrs ...any) (context.Context, string) {
	runID := o.newID()
	logger := clog.FromContext(ctx).With(append([]any{"run_id", runID}, attrs...)...)
	return clog.WithLogger(ctx, logger), runID
}
