package workflow

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/sallandpioneers/code-agent/internal/heuristics"
)

// FileStore reads and writes files of the working copy
type FileStore interface {
	GetFileContent(path string) (string, error)
	WriteFile(path, content string) error
}

// RewriteFunc returns the model's answer for path given its current content.
// The answer may still be wrapped in a code fence.
type RewriteFunc func(ctx context.Context, path, current string) (string, error)

// FileError records why a single file was skipped
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// RewriteResult is the outcome of a batch rewrite
type RewriteResult struct {
	// Modified lists the files written, in the order they were processed
	Modified []string
	Skipped  []FileError
}

// RewriteFiles runs read, rewrite, strip fence and write for every path in
// order. A failure on one file is logged and the file skipped; the batch
// continues. Only a cancelled context stops the loop early.
func RewriteFiles(ctx context.Context, store FileStore, paths []string, rewrite RewriteFunc) *RewriteResult {
	log := clog.FromContext(ctx)
	result := &RewriteResult{Modified: []string{}}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			result.Skipped = append(result.Skipped, FileError{Path: path, Err: err})
			break
		}

		if err := rewriteOne(ctx, store, path, rewrite); err != nil {
			log.With("file", path).Warnf("Skipping file: %v", err)
			result.Skipped = append(result.Skipped, FileError{Path: path, Err: err})
			continue
		}

		log.With("file", path).Info("Updated file")
		result.Modified = append(result.Modified, path)
	}

	return result
}

func rewriteOne(ctx context.Context, store FileStore, path string, rewrite RewriteFunc) error {
	current, err := store.GetFileContent(path)
	if err != nil {
		return fmt.Errorf("failed to read: %w", err)
	}

	answer, err := rewrite(ctx, path, current)
	if err != nil {
		return err
	}

	if err := store.WriteFile(path, heuristics.StripCodeFence(answer)); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	return nil
}
