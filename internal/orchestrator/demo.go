package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/workflow"
)

// DemoDir is the scratch directory, relative to the working copy root, that
// demo mode writes to
const DemoDir = ".code_agent_demo"

// LastRun is the content of last_run.json
type LastRun struct {
	DemoMode      bool                `json:"demo_mode"`
	RunID         string              `json:"run_id"`
	Timestamp     string              `json:"timestamp"`
	RepoPath      string              `json:"repo_path"`
	IssueNumber   int                 `json:"issue_number"`
	Branch        string              `json:"branch"`
	BaseBranch    string              `json:"base_branch"`
	PRTitle       string              `json:"pr_title"`
	PRBody        string              `json:"pr_body"`
	FilesModified []string            `json:"files_modified"`
	DiffPath      string              `json:"diff_path"`
	DiffStats     []workflow.FileStat `json:"diff_stats,omitempty"`
	FailureStage  string              `json:"failure_stage"`
	FailureReason string              `json:"failure_reason"`
}

type demoRun struct {
	runID         string
	issue         *host.Issue
	branch        string
	filesModified []string
	stage         string
	cause         error
}

// writeDemoRun writes the diff against the base branch and last_run.json. A
// diff that cannot be computed is replaced by a comment line.
func (o *Orchestrator) writeDemoRun(ctx context.Context, run demoRun) (*DemoArtifacts, error) {
	log := clog.FromContext(ctx)

	dir, err := o.demoDir()
	if err != nil {
		return nil, err
	}

	base := o.config.Agent.BaseBranch
	diffRel := filepath.Join(DemoDir, fmt.Sprintf("issue-%d.diff", run.issue.Number))

	var stats []workflow.FileStat
	diff, err := o.repo.Diff(ctx, base)
	if err != nil {
		log.Warnf("Could not compute diff against %s: %v", base, err)
		diff = fmt.Sprintf("# Failed to compute git diff: %v\n", err)
	} else if stats, err = workflow.DiffStats(diff); err != nil {
		log.Debugf("Could not parse diff stats: %v", err)
		stats = nil
	}

	diffPath := filepath.Join(dir, filepath.Base(diffRel))
	if err := os.WriteFile(diffPath, []byte(diff), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", diffPath, err)
	}

	root, err := filepath.Abs(o.repo.Root())
	if err != nil {
		root = o.repo.Root()
	}

	record := LastRun{
		DemoMode:      true,
		RunID:         run.runID,
		Timestamp:     o.now().UTC().Format(time.RFC3339),
		RepoPath:      root,
		IssueNumber:   run.issue.Number,
		Branch:        run.branch,
		BaseBranch:    base,
		PRTitle:       workflow.PRTitle(run.issue),
		PRBody:        workflow.PRBody(run.issue),
		FilesModified: run.filesModified,
		DiffPath:      filepath.ToSlash(diffRel),
		DiffStats:     stats,
		FailureStage:  run.stage,
		FailureReason: run.cause.Error(),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode last run: %w", err)
	}

	runPath := filepath.Join(dir, "last_run.json")
	if err := os.WriteFile(runPath, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", runPath, err)
	}

	log.Infof("Demo artifacts written to %s", dir)
	return &DemoArtifacts{
		Dir:          dir,
		DiffPath:     diffPath,
		RunPath:      runPath,
		FailureStage: run.stage,
	}, nil
}

// writeDemoReview stores a review that could not be posted
func (o *Orchestrator) writeDemoReview(prNumber int, body string) (string, error) {
	dir, err := o.demoDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("review-pr-%d.md", prNumber))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (o *Orchestrator) demoDir() (string, error) {
	dir := filepath.Join(o.repo.Root(), DemoDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}
