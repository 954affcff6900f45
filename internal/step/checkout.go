package step

import (
	"context"
	"log/slog"

	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/logfields"
)

// CheckoutStep fetches the repository source at the triggering commit.
// Failure is fatal to the job.
type CheckoutStep struct {
	deps Deps
}

func (s *CheckoutStep) Name() string               { return "checkout" }
func (s *CheckoutStep) Condition(*JobContext) bool { return true }
func (s *CheckoutStep) Degrades() bool             { return false }

func (s *CheckoutStep) Run(ctx context.Context, jc *JobContext) error {
	sha, err := s.deps.Checkout.CheckoutCommit(jc.Dir, jc.Event.Commit)
	if err != nil {
		return founderrors.WrapError(err, founderrors.CategoryGit, "checkout failed").
			WithContext("commit", jc.Event.Commit).
			Build()
	}
	jc.CommitSHA = sha
	slog.Info("source checked out",
		logfields.RunID(jc.RunID),
		logfields.Runner(jc.Runner),
		logfields.Commit(sha))
	return nil
}
