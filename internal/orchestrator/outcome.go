package orchestrator

import "errors"

var (
	// ErrNoChanges means no candidate file made it through the model
	ErrNoChanges = errors.New("no files were changed")
	// ErrIterationLimit means a fix was requested past the configured ceiling
	ErrIterationLimit = errors.New("iteration limit exceeded")
	// ErrMissingLink means a PR body does not reference its issue
	ErrMissingLink = errors.New("pull request does not reference an issue")
	// ErrReviewDisabled means code review is switched off in the configuration
	ErrReviewDisabled = errors.New("code review is disabled")
)

// Sentinel pr_url values reported when demo mode replaces the real PR
const (
	DemoPushURL     = "DEMO_MODE: PR creation skipped (no push permissions)"
	DemoCreatePRURL = "DEMO_MODE: PR creation failed (permissions). Showing local artifacts instead."
)

// Outcome is the result of one orchestration run. Exactly one of Success or
// Error is meaningful: a failed run has Success false and a human readable
// Error, with the cause kept in Err for errors.Is and errors.As.
type Outcome struct {
	Success bool
	Error   string
	Err     error

	RunID         string
	Branch        string
	FilesModified []string

	// PRNumber is 0 when demo mode recorded artifacts instead of opening a PR
	PRNumber  int
	PRURL     string
	Iteration int

	// Demo is set only when a demo-mode fallback wrote local artifacts
	Demo *DemoArtifacts
}

// DemoArtifacts locates what a demo-mode fallback wrote to the working copy
type DemoArtifacts struct {
	Dir          string
	DiffPath     string
	RunPath      string
	FailureStage string
}

func (o *Outcome) fail(message string, err error) *Outcome {
	o.Success = false
	o.Error = message
	o.Err = err
	return o
}

// failWrap fails with err as both the message and the cause
func (o *Outcome) failWrap(err error) *Outcome {
	return o.fail(err.Error(), err)
}

func (o *Outcome) succeed() *Outcome {
	o.Success = true
	o.Error = ""
	o.Err = nil
	return o
}
