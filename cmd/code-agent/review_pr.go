package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func reviewPRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review-pr <pr-number>",
		Short: "Review a pull request and post the verdict as a comment",
		Args:  cobra.ExactArgs(1),
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
			printHeader(w, "Reviewing PR #%d...", number)

			start := time.Now()
			out := a.orch.ReviewPR(ctx, number)
			a.observe("review-pr", start, out.Success, 0)
			if out.DemoPath != "" {
				a.metrics.ObserveDemoFallback("review")
			}

			printReviewOutcome(w, out)
			if !out.Success {
				clog.FromContext(ctx).Debugf("review-pr failed: %v", out.Err)
				return errRunFailed
			}
			return nil
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-summary <pr-number>",
		Short: "Print a markdown review summary for CI job output",
		Long: `Review a pull request like review-pr but only print the markdown
summary to stdout, for example into $GITHUB_STEP_SUMMARY.`,
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

			start := time.Now()
			summary, err := a.orch.Summary(ctx, number)
			a.observe("generate-summary", start, err == nil, 0)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
