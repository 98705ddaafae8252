package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func processIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-issue <issue-number>",
		Short: "Resolve an issue and open a pull request",
		Long: `Analyze an issue, rewrite the files it concerns on a new branch,
push the branch and open a pull request that fixes the issue.

Example:
  code-agent process-issue 42 --repo-path ./my-repo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[0], "issue")
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
			printHeader(w, "Processing issue #%d...", number)

			start := time.Now()
			out := a.orch.ResolveIssue(ctx, number)
			a.observe("process-issue", start, out.Success, len(out.FilesModified))
			if out.Demo != nil {
				a.metrics.ObserveDemoFallback(out.Demo.FailureStage)
			}

			printIssueOutcome(w, out)
			if !out.Success {
				clog.FromContext(ctx).Debugf("process-issue failed: %v", out.Err)
				return errRunFailed
			}
			return nil
		},
	}
}
