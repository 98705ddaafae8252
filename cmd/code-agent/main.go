package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	repoPath   string
	logLevel   string
	logFile    string
	verbose    bool
)

// errRunFailed is returned by commands whose failure was already reported
// to the user
var errRunFailed = errors.New("run failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "code-agent",
		Short: "Resolve issues and apply review feedback with a language model",
		Long: `Code Agent turns repository issues into pull requests and applies
review feedback to them.

It handles:
- process-issue: analyze an issue, rewrite the files it concerns, open a PR
- fix-pr: apply reviewer feedback to an open PR, bounded by max_iterations
- review-pr: review a PR (diff, linked issue, CI checks) and post a comment
- generate-summary: print the same review as markdown without posting it

With demo_mode enabled, push and PR failures are recorded under
.code_agent_demo/ in the working copy instead of failing the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to config file (default: .code-agent.yaml in the repository)")
	flags.StringVarP(&repoPath, "repo-path", "r", "", "Path to the local repository (default: current directory)")
	flags.StringVarP(&logLevel, "log-level", "l", "", "Logging level: DEBUG, INFO, WARNING, ERROR")
	flags.StringVar(&logFile, "log-file", "", "Also write logs to this file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(processIssueCmd())
	rootCmd.AddCommand(fixPRCmd())
	rootCmd.AddCommand(reviewPRCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "code-agent %s\n", version)
		},
	}
}
