// Package gitops performs the source checkout for verification runs: a
// clone of the repository followed by a hard checkout of the triggering
// commit.
package gitops

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/pipewright/pipewright/internal/logfields"
)

// Client handles git operations for a verification run.
type Client struct {
	url string
}

// NewClient creates a client for the given repository URL.
func NewClient(url string) *Client { return &Client{url: url} }

// CheckoutCommit clones the repository into dir and checks out the given
// commit SHA. An empty SHA leaves the clone at the default branch head and
// returns its hash.
func (c *Client) CheckoutCommit(dir, sha string) (string, error) {
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: c.url})
	if err != nil {
		return "", classifyError("clone", c.url, err)
	}

	if sha == "" {
		head, herr := repo.Head()
		if herr != nil {
			return "", fmt.Errorf("failed to resolve HEAD after clone: %w", herr)
		}
		return head.Hash().String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	hash := plumbing.NewHash(sha)
	if _, err := repo.CommitObject(hash); err != nil {
		return "", &NotFoundError{Op: "checkout", URL: c.url, Err: fmt.Errorf("commit %s: %w", sha, err)}
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return "", fmt.Errorf("failed to check out %s: %w", sha, err)
	}

	slog.Debug("checked out commit", logfields.URL(c.url), logfields.Commit(shortSHA(sha)), logfields.Path(dir))
	return sha, nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// classifyError wraps underlying go-git errors into typed failures so
// downstream code can classify without string parsing.
func classifyError(op, url string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		return &AuthError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout") || strings.Contains(l, "connection refused"):
		return &NetworkTimeoutError{Op: op, URL: url, Err: err}
	}
	return fmt.Errorf("git %s %s: %w", op, url, err)
}
