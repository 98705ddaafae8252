package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

// GitHub implements Host using the GitHub REST API
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHub creates a GitHub host bound to owner/repo. An empty apiURL means
// github.com; anything else is treated as a GitHub Enterprise base URL.
func NewGitHub(ctx context.Context, token, repoSlug, apiURL string, timeout time.Duration) (*GitHub, error) {
	owner, repo, ok := strings.Cut(repoSlug, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q, expected owner/repo", repoSlug)
	}

	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = timeout

	client := github.NewClient(httpClient)
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URL: %w", err)
		}
	}

	return &GitHub{client: client, owner: owner, repo: repo}, nil
}

func (g *GitHub) Name() string {
	return fmt.Sprintf("github:%s/%s", g.owner, g.repo)
}

func (g *GitHub) GetIssue(ctx context.Context, number int) (*Issue, error) {
	gi, resp, err := g.client.Issues.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return nil, g.wrap(resp, fmt.Errorf("failed to get issue #%d: %w", number, err))
	}

	labels := make([]string, 0, len(gi.Labels))
	for _, l := range gi.Labels {
		labels = append(labels, l.GetName())
	}
	assignees := make([]string, 0, len(gi.Assignees))
	for _, a := range gi.Assignees {
		assignees = append(assignees, a.GetLogin())
	}

	return &Issue{
		Number:    gi.GetNumber(),
		Title:     gi.GetTitle(),
		Body:      gi.GetBody(),
		State:     gi.GetState(),
		Labels:    labels,
		Assignees: assignees,
		Author:    gi.GetUser().GetLogin(),
		CreatedAt: gi.GetCreatedAt().Time,
		UpdatedAt: gi.GetUpdatedAt().Time,
	}, nil
}

func (g *GitHub) CreatePR(ctx context.Context, pr PRCreate) (*PR, error) {
	created, resp, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.Ptr(pr.Title),
		Body:  github.Ptr(pr.Body),
		Head:  github.Ptr(pr.Head),
		Base:  github.Ptr(pr.Base),
	})
	if err != nil {
		return nil, g.wrap(resp, fmt.Errorf("failed to create PR %s -> %s: %w", pr.Head, pr.Base, err))
	}
	return convertPR(created), nil
}

func (g *GitHub) GetPR(ctx context.Context, number int) (*PR, error) {
	pr, resp, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return nil, g.wrap(resp, fmt.Errorf("failed to get PR #%d: %w", number, err))
	}
	return convertPR(pr), nil
}

func (g *GitHub) GetPRFiles(ctx context.Context, number int) ([]*ChangedFile, error) {
	var files []*ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := g.client.PullRequests.ListFiles(ctx, g.owner, g.repo, number, opts)
		if err != nil {
			return nil, g.wrap(resp, fmt.Errorf("failed to list files of PR #%d: %w", number, err))
		}
		for _, f := range page {
			files = append(files, &ChangedFile{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Patch:     f.GetPatch(),
			})
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetPRChecks returns the check runs reported on the PR's head commit
func (g *GitHub) GetPRChecks(ctx context.Context, number int) ([]*CheckRun, error) {
	pr, err := g.GetPR(ctx, number)
	if err != nil {
		return nil, err
	}

	var checks []*CheckRun
	opts := &github.ListCheckRunsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		result, resp, err := g.client.Checks.ListCheckRunsForRef(ctx, g.owner, g.repo, pr.HeadSHA, opts)
		if err != nil {
			return nil, g.wrap(resp, fmt.Errorf("failed to list checks for %s: %w", pr.HeadSHA, err))
		}
		for _, cr := range result.CheckRuns {
			checks = append(checks, &CheckRun{
				Name:       cr.GetName(),
				Status:     cr.GetStatus(),
				Conclusion: cr.GetConclusion(),
				Summary:    cr.GetOutput().GetSummary(),
			})
		}
		if resp.NextPage == 0 {
			return checks, nil
		}
		opts.Page = resp.NextPage
	}
}

func (g *GitHub) CreateReview(ctx context.Context, number int, review ReviewCreate) error {
	event := review.Event
	if event == "" {
		event = ReviewComment
	}
	_, resp, err := g.client.PullRequests.CreateReview(ctx, g.owner, g.repo, number, &github.PullRequestReviewRequest{
		Body:  github.Ptr(review.Body),
		Event: github.Ptr(string(event)),
	})
	if err != nil {
		return g.wrap(resp, fmt.Errorf("failed to create review on PR #%d: %w", number, err))
	}
	return nil
}

// wrap attaches the response status, when there is one, so callers can
// classify the failure
func (g *GitHub) wrap(resp *github.Response, err error) error {
	var ghErr *github.ErrorResponse
	if resp != nil && resp.Response != nil {
		return &APIError{Host: "github", StatusCode: resp.StatusCode, Err: err}
	}
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &APIError{Host: "github", StatusCode: ghErr.Response.StatusCode, Err: err}
	}
	return err
}

func convertPR(pr *github.PullRequest) *PR {
	return &PR{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		Body:    pr.GetBody(),
		State:   pr.GetState(),
		HTMLURL: pr.GetHTMLURL(),
		HeadRef: pr.GetHead().GetRef(),
		HeadSHA: pr.GetHead().GetSHA(),
		BaseRef: pr.GetBase().GetRef(),
	}
}
