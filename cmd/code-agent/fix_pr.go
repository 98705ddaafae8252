package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func fixPRCmd() *cobra.Command {
	var feedback string
	var iteration int

	cmd := &cobra.Command{
		Use:   "fix-pr <pr-number>",
		Short: "Apply review feedback to a pull request",
		Long: `Check out the head branch of a pull request, rewrite its changed
files according to the feedback and push a fix commit.

Each call is one iteration; calls past max_iterations fail without
touching the repository or the host.

Example:
  code-agent fix-pr 12 --feedback "Handle empty input" --iteration 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[0], "PR")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctx, a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			w := cmd.OutOrStdout()
			printHeader(w, "Fixing PR #%d (iteration %d)...", number, iteration)

			start := time.Now()
			out := a.orch.FixPR(ctx, number, feedback, iteration)
			a.observe("fix-pr", start, out.Success, len(out.FilesModified))

			printFixOutcome(w, out)
			if !out.Success {
				clog.FromContext(ctx).Debugf("fix-pr failed: %v", out.Err)
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&feedback, "feedback", "f", "", "Feedback from review to address")
	cmd.Flags().IntVarP(&iteration, "iteration", "i", 1, "Iteration number")
	cmd.MarkFlagRequired("feedback")

	return cmd
}
