// Package workspace manages the local git working copy the agent edits.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const remoteName = "origin"

// Options configures how the workspace authenticates and signs commits
type Options struct {
	// Token authenticates HTTPS fetches and pushes; empty means anonymous
	Token       string
	AuthorName  string
	AuthorEmail string
}

// Workspace is a git working copy on local disk
type Workspace struct {
	root   string
	repo   *git.Repository
	auth   transport.AuthMethod
	author object.Signature
}

// Open opens the existing repository at path
func Open(path string, opts Options) (*Workspace, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", root, err)
	}

	w := &Workspace{
		root:   root,
		repo:   repo,
		author: object.Signature{Name: opts.AuthorName, Email: opts.AuthorEmail},
	}
	if opts.Token != "" {
		w.auth = &githttp.BasicAuth{
			Username: "x-access-token",
			Password: opts.Token,
		}
	}
	return w, nil
}

// Root returns the absolute path of the working copy
func (w *Workspace) Root() string {
	return w.root
}

// RemoteURL returns the first URL of the origin remote
func (w *Workspace) RemoteURL() (string, error) {
	remote, err := w.repo.Remote(remoteName)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remoteName)
	}
	return urls[0], nil
}

// CurrentBranch returns the short name of the checked out branch
func (w *Workspace) CurrentBranch() (string, error) {
	head, err := w.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

// CheckoutAndSync checks out branch, creating it from origin when it only
// exists there, and fast-forwards it to origin.
func (w *Workspace) CheckoutAndSync(ctx context.Context, branch string) error {
	log := clog.FromContext(ctx)
	localRef := plumbing.NewBranchReferenceName(branch)

	if err := w.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remoteName, branch))},
		Auth:       w.auth,
	}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", branch, err)
	}

	if _, err := w.repo.Reference(localRef, true); errors.Is(err, plumbing.ErrReferenceNotFound) {
		remoteRef, err := w.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
		if err != nil {
			return fmt.Errorf("failed to find %s/%s: %w", remoteName, branch, err)
		}
		log.Infof("Creating local branch %s from %s/%s", branch, remoteName, branch)
		if err := w.repo.Storer.SetReference(plumbing.NewHashReference(localRef, remoteRef.Hash())); err != nil {
			return fmt.Errorf("failed to create branch %s: %w", branch, err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to look up branch %s: %w", branch, err)
	}

	wt, err := w.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: localRef}); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", branch, err)
	}

	log.Infof("Pulling %s", branch)
	if err := wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: localRef,
		Auth:          w.auth,
	}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %s: %w", branch, err)
	}
	return nil
}

// CreateBranch syncs base and checks out a fresh branch name on top of it.
// A local branch with the same name is deleted first.
func (w *Workspace) CreateBranch(ctx context.Context, name, base string) error {
	if err := w.CheckoutAndSync(ctx, base); err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(name)
	if _, err := w.repo.Reference(ref, true); err == nil {
		clog.FromContext(ctx).Warnf("Deleting existing local branch %s", name)
		if err := w.repo.Storer.RemoveReference(ref); err != nil {
			return fmt.Errorf("failed to delete branch %s: %w", name, err)
		}
	}

	head, err := w.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	if err := w.repo.Storer.SetReference(plumbing.NewHashReference(ref, head.Hash())); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}

	wt, err := w.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref}); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	return nil
}

// GetFileContent returns the content of path, or "" if it does not exist
func (w *Workspace) GetFileContent(path string) (string, error) {
	full, err := w.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteFile writes content to path, creating parent directories
func (w *Workspace) WriteFile(path, content string) error {
	full, err := w.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Commit stages paths and commits them with message
func (w *Workspace) Commit(ctx context.Context, message string, paths []string) error {
	wt, err := w.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	for _, p := range paths {
		full, err := w.resolve(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.root, full)
		if err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
		if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}

	author := w.author
	author.When = time.Now()
	hash, err := wt.Commit(message, &git.CommitOptions{Author: &author})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	clog.FromContext(ctx).Infof("Committed %s", hash.String()[:8])
	return nil
}

// Push force-pushes branch to origin
func (w *Workspace) Push(ctx context.Context, branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	clog.FromContext(ctx).Infof("Force pushing %s", refSpec)

	err := w.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Force:      true,
		Auth:       w.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push %s: %w", branch, err)
	}
	return nil
}

// Diff returns the unified diff from the merge base of base and HEAD to
// HEAD. Uncommitted paths are appended as comment lines.
func (w *Workspace) Diff(ctx context.Context, base string) (string, error) {
	baseHash, err := w.resolveRevision(base)
	if err != nil {
		return "", err
	}
	head, err := w.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	baseCommit, err := w.repo.CommitObject(baseHash)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", base, err)
	}
	headCommit, err := w.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("failed to load HEAD: %w", err)
	}

	bases, err := baseCommit.MergeBase(headCommit)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("%s and HEAD have no common ancestor", base)
	}

	patch, err := bases[0].PatchContext(ctx, headCommit)
	if err != nil {
		return "", fmt.Errorf("failed to compute diff: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(patch.String())

	wt, err := w.repo.Worktree()
	if err != nil {
		return sb.String(), nil
	}
	status, err := wt.Status()
	if err != nil || status.IsClean() {
		return sb.String(), nil
	}
	paths := make([]string, 0, len(status))
	for p := range status {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	sb.WriteString("# Uncommitted changes:\n")
	for _, p := range paths {
		fs := status[p]
		sb.WriteString(fmt.Sprintf("# %c%c %s\n", fs.Staging, fs.Worktree, p))
	}
	return sb.String(), nil
}

func (w *Workspace) resolveRevision(name string) (plumbing.Hash, error) {
	for _, rev := range []string{name, remoteName + "/" + name} {
		h, err := w.repo.ResolveRevision(plumbing.Revision(rev))
		if err == nil {
			return *h, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("failed to resolve revision %s", name)
}

// resolve maps a repository-relative path to an absolute one and rejects
// paths outside the working copy
func (w *Workspace) resolve(path string) (string, error) {
	full := filepath.Join(w.root, filepath.Clean(path))
	rel, err := filepath.Rel(w.root, full)
	if err != nil {
		return "", fmt.Errorf("path %q: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the repository", path)
	}
	if rel == ".git" || strings.HasPrefix(rel, ".git"+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is inside the git directory", path)
	}
	return full, nil
}
