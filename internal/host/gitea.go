package host

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"code.gitea.io/sdk/gitea"

	"github.com/sallandpioneers/code-agent/internal/retry"
)

// Gitea implements Host using the Gitea SDK. Not safe for concurrent use:
// the SDK client carries the request context.
type Gitea struct {
	client *gitea.Client
	owner  string
	repo   string
	retry  retry.Options
}

// NewGitea creates a Gitea host bound to owner/repo on the server at url.
// Reads are retried with retryOpts; writes are sent once.
func NewGitea(url, token, repoSlug string, timeout time.Duration, retryOpts retry.Options) (*Gitea, error) {
	owner, repo, ok := strings.Cut(repoSlug, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q, expected owner/repo", repoSlug)
	}

	opts := []gitea.ClientOption{
		gitea.SetHTTPClient(&http.Client{Timeout: timeout}),
		// skip the server version lookup; every call used here exists since 1.17
		gitea.SetGiteaVersion(""),
	}
	if token != "" {
		opts = append(opts, gitea.SetToken(token))
	}
	client, err := gitea.NewClient(strings.TrimRight(url, "/"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gitea client: %w", err)
	}

	return &Gitea{client: client, owner: owner, repo: repo, retry: retryOpts}, nil
}

func (g *Gitea) Name() string {
	return fmt.Sprintf("gitea:%s/%s", g.owner, g.repo)
}

func (g *Gitea) api(ctx context.Context) *gitea.Client {
	g.client.SetContext(ctx)
	return g.client
}

// read runs an idempotent request, retrying transient failures
func read[T any](ctx context.Context, g *Gitea, call func(*gitea.Client) (T, *gitea.Response, error)) (T, error) {
	return retry.DoWithResult(ctx, g.retry, func() (T, error) {
		v, resp, err := call(g.api(ctx))
		return v, wrapGitea(resp, err)
	})
}

// write sends a request exactly once. A lost answer does not mean the server
// did not apply it.
func write[T any](ctx context.Context, g *Gitea, call func(*gitea.Client) (T, *gitea.Response, error)) (T, error) {
	v, resp, err := call(g.api(ctx))
	return v, wrapGitea(resp, err)
}

// wrapGitea attaches the status of an error response. Failures on a success
// status (an unreadable body) stay plain errors.
func wrapGitea(resp *gitea.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.Response != nil && resp.StatusCode >= 300 {
		return &APIError{Host: "gitea", StatusCode: resp.StatusCode, Err: err}
	}
	return err
}

func (g *Gitea) GetIssue(ctx context.Context, number int) (*Issue, error) {
	gi, err := read(ctx, g, func(c *gitea.Client) (*gitea.Issue, *gitea.Response, error) {
		return c.GetIssue(g.owner, g.repo, int64(number))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get issue #%d: %w", number, err)
	}

	labels := make([]string, 0, len(gi.Labels))
	for _, l := range gi.Labels {
		labels = append(labels, l.Name)
	}
	assignees := make([]string, 0, len(gi.Assignees))
	for _, a := range gi.Assignees {
		assignees = append(assignees, a.UserName)
	}
	var author string
	if gi.Poster != nil {
		author = gi.Poster.UserName
	}

	return &Issue{
		Number:    int(gi.Index),
		Title:     gi.Title,
		Body:      gi.Body,
		State:     string(gi.State),
		Labels:    labels,
		Assignees: assignees,
		Author:    author,
		CreatedAt: gi.Created,
		UpdatedAt: gi.Updated,
	}, nil
}

func (g *Gitea) CreatePR(ctx context.Context, pr PRCreate) (*PR, error) {
	created, err := write(ctx, g, func(c *gitea.Client) (*gitea.PullRequest, *gitea.Response, error) {
		return c.CreatePullRequest(g.owner, g.repo, gitea.CreatePullRequestOption{
			Title: pr.Title,
			Body:  pr.Body,
			Head:  pr.Head,
			Base:  pr.Base,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PR %s -> %s: %w", pr.Head, pr.Base, err)
	}
	return convertGiteaPR(created), nil
}

func (g *Gitea) GetPR(ctx context.Context, number int) (*PR, error) {
	pr, err := read(ctx, g, func(c *gitea.Client) (*gitea.PullRequest, *gitea.Response, error) {
		return c.GetPullRequest(g.owner, g.repo, int64(number))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get PR #%d: %w", number, err)
	}
	return convertGiteaPR(pr), nil
}

// GetPRFiles lists changed files. Gitea does not include patches in this
// listing, so Patch is always empty.
func (g *Gitea) GetPRFiles(ctx context.Context, number int) ([]*ChangedFile, error) {
	var files []*ChangedFile
	opts := gitea.ListPullRequestFilesOptions{ListOptions: gitea.ListOptions{Page: 1, PageSize: 50}}
	for {
		var next int
		page, err := read(ctx, g, func(c *gitea.Client) ([]*gitea.ChangedFile, *gitea.Response, error) {
			page, resp, err := c.ListPullRequestFiles(g.owner, g.repo, int64(number), opts)
			if resp != nil {
				next = resp.NextPage
			}
			return page, resp, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list files of PR #%d: %w", number, err)
		}
		for _, f := range page {
			files = append(files, &ChangedFile{
				Filename:  f.Filename,
				Status:    f.Status,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}
		if next == 0 || next == opts.Page {
			return files, nil
		}
		opts.Page = next
	}
}

// GetPRChecks maps the combined commit status of the PR head to check runs
func (g *Gitea) GetPRChecks(ctx context.Context, number int) ([]*CheckRun, error) {
	pr, err := g.GetPR(ctx, number)
	if err != nil {
		return nil, err
	}

	combined, err := read(ctx, g, func(c *gitea.Client) (*gitea.CombinedStatus, *gitea.Response, error) {
		return c.GetCombinedStatus(g.owner, g.repo, pr.HeadSHA)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get status for %s: %w", pr.HeadSHA, err)
	}

	checks := make([]*CheckRun, 0, len(combined.Statuses))
	for _, s := range combined.Statuses {
		check := &CheckRun{Name: s.Context, Summary: s.Description, Status: "completed", Conclusion: string(s.State)}
		if s.State == gitea.StatusPending {
			check.Status = "in_progress"
			check.Conclusion = ""
		}
		checks = append(checks, check)
	}
	return checks, nil
}

func (g *Gitea) CreateReview(ctx context.Context, number int, review ReviewCreate) error {
	state := gitea.ReviewStateComment
	switch review.Event {
	case ReviewApprove:
		state = gitea.ReviewStateApproved
	case ReviewRequestChanges:
		state = gitea.ReviewStateRequestChanges
	}

	_, err := write(ctx, g, func(c *gitea.Client) (*gitea.PullReview, *gitea.Response, error) {
		return c.CreatePullReview(g.owner, g.repo, int64(number), gitea.CreatePullReviewOptions{
			State: state,
			Body:  review.Body,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create review on PR #%d: %w", number, err)
	}
	return nil
}

func convertGiteaPR(pr *gitea.PullRequest) *PR {
	out := &PR{
		Number:  int(pr.Index),
		Title:   pr.Title,
		Body:    pr.Body,
		State:   string(pr.State),
		HTMLURL: pr.HTMLURL,
	}
	if pr.Head != nil {
		out.HeadRef = pr.Head.Ref
		out.HeadSHA = pr.Head.Sha
	}
	if pr.Base != nil {
		out.BaseRef = pr.Base.Ref
	}
	return out
}
