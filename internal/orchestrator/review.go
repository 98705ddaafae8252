package orchestrator

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/sallandpioneers/code-agent/internal/heuristics"
	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/llm"
	"github.com/sallandpioneers/code-agent/internal/workflow"
)

// ReviewOutcome is the result of reviewing one pull request
type ReviewOutcome struct {
	Success bool
	Error   string
	Err     error

	RunID    string
	PRNumber int
	Review   *llm.Review
	// CI is nil when CI analysis is disabled or the checks were unavailable
	CI *workflow.CIResult
	// Summary is the markdown posted as the review body
	Summary string
	Posted  bool
	// DemoPath is set when demo mode stored the review locally instead
	DemoPath string
}

func (r *ReviewOutcome) fail(message string, err error) *ReviewOutcome {
	r.Success = false
	r.Error = message
	r.Err = err
	return r
}

type prAnalysis struct {
	review  *llm.Review
	ci      *workflow.CIResult
	summary string
}

// ReviewPR asks the model to review a pull request and posts the verdict as a
// comment review
func (o *Orchestrator) ReviewPR(ctx context.Context, prNumber int) *ReviewOutcome {
	ctx, runID := o.startRun(ctx, "pr", prNumber)
	log := clog.FromContext(ctx)
	out := &ReviewOutcome{RunID: runID, PRNumber: prNumber}

	if !o.config.Review.Enabled {
		return out.fail("Code review is disabled", ErrReviewDisabled)
	}

	analysis, err := o.analyzePR(ctx, prNumber)
	if err != nil {
		return out.fail(err.Error(), err)
	}
	out.Review = analysis.review
	out.CI = analysis.ci
	out.Summary = analysis.summary

	err = o.host.CreateReview(ctx, prNumber, host.ReviewCreate{
		Body:  analysis.summary,
		Event: host.ReviewComment,
	})
	if err != nil {
		if !o.config.Agent.DemoMode {
			err = fmt.Errorf("failed to post review on PR #%d: %w", prNumber, err)
			return out.fail(err.Error(), err)
		}
		log.Warnf("Demo mode: could not post review, writing it locally: %v", err)
		path, werr := o.writeDemoReview(prNumber, analysis.summary)
		if werr != nil {
			return out.fail(werr.Error(), werr)
		}
		out.DemoPath = path
		out.Success = true
		return out
	}

	log.Infof("Posted review on PR #%d (approved=%t)", prNumber, analysis.review.Approved)
	out.Posted = true
	out.Success = true
	return out
}

// Summary runs the same analysis as ReviewPR without posting anything and
// returns the markdown
func (o *Orchestrator) Summary(ctx context.Context, prNumber int) (string, error) {
	ctx, _ = o.startRun(ctx, "pr", prNumber)
	analysis, err := o.analyzePR(ctx, prNumber)
	if err != nil {
		return "", err
	}
	return analysis.summary, nil
}

func (o *Orchestrator) analyzePR(ctx context.Context, prNumber int) (*prAnalysis, error) {
	log := clog.FromContext(ctx)

	pr, err := o.host.GetPR(ctx, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR #%d: %w", prNumber, err)
	}

	files, err := o.host.GetPRFiles(ctx, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of PR #%d: %w", prNumber, err)
	}
	diff := workflow.FormatPRDiff(files)

	issueText := fmt.Sprintf("%s\n\n%s", pr.Title, pr.Body)
	if n, ok := heuristics.IssueReference(pr.Body); ok {
		if issue, err := o.host.GetIssue(ctx, n); err != nil {
			log.Warnf("Could not fetch linked issue #%d, using the PR description: %v", n, err)
		} else {
			issueText = issue.Text()
		}
	}

	var ci *workflow.CIResult
	if o.config.Review.CIAnalysis {
		checks, err := o.host.GetPRChecks(ctx, prNumber)
		if err != nil {
			log.Warnf("Could not fetch CI checks: %v", err)
		} else {
			ci = workflow.SummarizeChecks(checks)
		}
	}

	ciText := ""
	if ci != nil {
		ciText = ci.FormatForModel()
	}
	review, err := o.llm.ReviewChanges(ctx, diff, issueText, ciText)
	if err != nil {
		return nil, err
	}

	return &prAnalysis{
		review:  review,
		ci:      ci,
		summary: workflow.RenderReview(prNumber, review, ci),
	}, nil
}
