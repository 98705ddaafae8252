package orchestrator

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/sallandpioneers/code-agent/internal/heuristics"
	"github.com/sallandpioneers/code-agent/internal/workflow"
)

// FixPR applies review feedback to the head branch of a pull request. The
// iteration ceiling is checked before any port is touched. There is no demo
// fallback here: a fix presupposes a branch the agent can push to.
func (o *Orchestrator) FixPR(ctx context.Context, prNumber int, feedback string, iteration int) *Outcome {
	ctx, runID := o.startRun(ctx, "pr", prNumber, "iteration", iteration)
	log := clog.FromContext(ctx)
	out := &Outcome{RunID: runID, PRNumber: prNumber, Iteration: iteration, FilesModified: []string{}}

	if iteration > o.config.Agent.MaxIterations {
		log.Warnf("Iteration %d exceeds the limit of %d", iteration, o.config.Agent.MaxIterations)
		return out.fail("Max iterations reached", ErrIterationLimit)
	}

	pr, err := o.host.GetPR(ctx, prNumber)
	if err != nil {
		return out.failWrap(fmt.Errorf("failed to fetch PR #%d: %w", prNumber, err))
	}
	out.Branch = pr.HeadRef
	out.PRURL = pr.HTMLURL

	issueNumber, ok := heuristics.IssueReference(pr.Body)
	if !ok {
		return out.fail("Could not find related issue", ErrMissingLink)
	}

	issue, err := o.host.GetIssue(ctx, issueNumber)
	if err != nil {
		return out.failWrap(fmt.Errorf("failed to fetch issue #%d: %w", issueNumber, err))
	}
	log.Infof("Fixing PR #%d for issue #%d (iteration %d)", prNumber, issueNumber, iteration)

	if err := o.repo.CheckoutAndSync(ctx, pr.HeadRef); err != nil {
		return out.failWrap(fmt.Errorf("failed to check out %s: %w", pr.HeadRef, err))
	}

	files, err := o.host.GetPRFiles(ctx, prNumber)
	if err != nil {
		return out.failWrap(fmt.Errorf("failed to list files of PR #%d: %w", prNumber, err))
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.Status == "removed" {
			log.Debugf("Skipping removed file %s", f.Filename)
			continue
		}
		paths = append(paths, f.Filename)
	}

	provider := o.llm.Provider()
	result := workflow.RewriteFiles(ctx, o.repo, paths, func(ctx context.Context, path, current string) (string, error) {
		return provider.Generate(ctx, o.llm.FixRequest(issue.Text(), path, current, feedback))
	})
	out.FilesModified = result.Modified
	if len(result.Modified) == 0 {
		return out.fail("No files were modified", ErrNoChanges)
	}

	if err := o.repo.Commit(ctx, workflow.FixCommitMessage(prNumber, iteration), result.Modified); err != nil {
		return out.failWrap(fmt.Errorf("failed to commit: %w", err))
	}
	if err := o.repo.Push(ctx, pr.HeadRef); err != nil {
		return out.failWrap(fmt.Errorf("failed to push %s: %w", pr.HeadRef, err))
	}

	log.Infof("Pushed %d file(s) to %s", len(result.Modified), pr.HeadRef)
	return out.succeed()
}
