package orchestrator

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/workflow"
)

// Stages at which demo mode can replace a failed remote operation with local
// artifacts
const (
	StagePush     = "push"
	StageCreatePR = "create_pr"
)

// ResolveIssue turns an issue into a pull request. Every path ends in an
// Outcome; no error escapes. In demo mode failures to create the branch,
// commit, push or open the PR degrade instead of failing the run.
func (o *Orchestrator) ResolveIssue(ctx context.Context, number int) *Outcome {
	ctx, runID := o.startRun(ctx, "issue", number)
	log := clog.FromContext(ctx)
	demo := o.config.Agent.DemoMode
	out := &Outcome{RunID: runID, FilesModified: []string{}}

	issue, err := o.host.GetIssue(ctx, number)
	if err != nil {
		return out.failWrap(fmt.Errorf("failed to fetch issue #%d: %w", number, err))
	}
	log.Infof("Processing issue #%d: %s", issue.Number, issue.Title)

	structure, err := o.repo.ListStructure(o.config.Agent.StructureDepth)
	if err != nil {
		return out.failWrap(fmt.Errorf("failed to list repository structure: %w", err))
	}

	analysis, err := o.llm.AnalyzeIssue(ctx, issue.Text(), structure)
	if err != nil {
		return out.failWrap(err)
	}

	branch := workflow.BranchName(o.config.Agent.BranchPrefix, number)
	base := o.config.Agent.BaseBranch
	out.Branch = branch

	if err := o.repo.CreateBranch(ctx, branch, base); err != nil {
		if !demo {
			return out.failWrap(fmt.Errorf("failed to create branch %s from %s: %w", branch, base, err))
		}
		log.Warnf("Demo mode: could not create branch %s, continuing on the current branch: %v", branch, err)
	}

	paths := workflow.CandidateFiles(analysis.Text, issue.Text())
	log.Infof("Candidate files: %v", paths)

	result := workflow.RewriteFiles(ctx, o.repo, paths, func(ctx context.Context, path, current string) (string, error) {
		return o.llm.GenerateCodeChanges(ctx, issue.Text(), current, path)
	})
	out.FilesModified = result.Modified
	if len(result.Modified) == 0 {
		return out.fail("No changes were made", ErrNoChanges)
	}

	title := workflow.PRTitle(issue)
	if err := o.repo.Commit(ctx, title, result.Modified); err != nil {
		if !demo {
			return out.failWrap(fmt.Errorf("failed to commit: %w", err))
		}
		log.Warnf("Demo mode: commit failed, changes stay uncommitted: %v", err)
	}

	if err := o.repo.Push(ctx, branch); err != nil {
		if !demo {
			return out.failWrap(fmt.Errorf("failed to push %s: %w", branch, err))
		}
		return o.demoFallback(ctx, out, issue, StagePush, err)
	}

	pr, err := o.host.CreatePR(ctx, host.PRCreate{
		Title: title,
		Body:  workflow.PRBody(issue),
		Head:  branch,
		Base:  base,
	})
	if err != nil {
		if !demo {
			return out.failWrap(fmt.Errorf("failed to create pull request: %w", err))
		}
		return o.demoFallback(ctx, out, issue, StageCreatePR, err)
	}

	log.Infof("Created PR #%d: %s", pr.Number, pr.HTMLURL)
	out.PRNumber = pr.Number
	out.PRURL = pr.HTMLURL
	return out.succeed()
}

// demoFallback records what the run would have pushed and reports success
// with PR number 0
func (o *Orchestrator) demoFallback(ctx context.Context, out *Outcome, issue *host.Issue, stage string, cause error) *Outcome {
	clog.FromContext(ctx).Warnf("Demo mode: %s failed, writing local artifacts: %v", stage, cause)

	artifacts, err := o.writeDemoRun(ctx, demoRun{
		runID:         out.RunID,
		issue:         issue,
		branch:        out.Branch,
		filesModified: out.FilesModified,
		stage:         stage,
		cause:         cause,
	})
	if err != nil {
		return out.failWrap(fmt.Errorf("%s failed (%v) and demo artifacts could not be written: %w", stage, cause, err))
	}

	out.PRNumber = 0
	out.PRURL = DemoPushURL
	if stage == StageCreatePR {
		out.PRURL = DemoCreatePRURL
	}
	out.Demo = artifacts
	return out.succeed()
}
