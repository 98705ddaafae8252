// Package host talks to the code hosting service (GitHub or Gitea) that owns
// the issues and pull requests the agent works on.
package host

import (
	"context"
	"fmt"
	"time"
)

// Issue represents an issue from any host
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string
	Labels    []string
	Assignees []string
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Text returns the title and body as one block, as the model sees the issue
func (i *Issue) Text() string {
	return fmt.Sprintf("%s\n\n%s", i.Title, i.Body)
}

// PR represents a pull request
type PR struct {
	Number  int
	Title   string
	Body    string
	State   string
	HTMLURL string
	HeadRef string
	HeadSHA string
	BaseRef string
}

// PRCreate contains fields for creating a PR
type PRCreate struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// ChangedFile is one file touched by a PR
type ChangedFile struct {
	Filename  string
	Status    string
	Additions int
	Deletions int
	Patch     string
}

// CheckRun is a CI check or commit status reported for a PR head
type CheckRun struct {
	Name       string
	Status     string
	Conclusion string
	Summary    string
}

// ReviewEvent is the kind of review being submitted
type ReviewEvent string

const (
	ReviewComment        ReviewEvent = "COMMENT"
	ReviewApprove        ReviewEvent = "APPROVE"
	ReviewRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// ReviewCreate contains fields for submitting a PR review
type ReviewCreate struct {
	Body  string
	Event ReviewEvent
}

// Host defines the operations the agent needs from a code host. A Host is
// bound to a single repository.
type Host interface {
	GetIssue(ctx context.Context, number int) (*Issue, error)

	CreatePR(ctx context.Context, pr PRCreate) (*PR, error)
	GetPR(ctx context.Context, number int) (*PR, error)
	GetPRFiles(ctx context.Context, number int) ([]*ChangedFile, error)
	GetPRChecks(ctx context.Context, number int) ([]*CheckRun, error)
	CreateReview(ctx context.Context, number int, review ReviewCreate) error

	// Name identifies the host and repository, e.g. "github:owner/repo"
	Name() string
}

// APIError is returned when the host answers with a non-success status
type APIError struct {
	Host       string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %v", e.Host, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// HTTPStatus returns the response status code
func (e *APIError) HTTPStatus() int { return e.StatusCode }
