package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the apimsync CLI and returns an error if any command
// fails. The root command wires the subcommands, configures logging based
// on --verbose, and attaches the logger to the context for all commands.
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          "apimsync",
		Short:        "apimsync synchronizes API Management services with git trees",
		Long:         `apimsync is a bidirectional synchronization tool between an Azure API Management service and a git-backed directory tree: extract snapshots the live service into canonical files, and publish applies a tree (or a commit diff) back to the service in dependency order.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("apimsync %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newExtractCmd())
	root.AddCommand(newPublishCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newCompletionCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return root.ExecuteContext(ctx)
}
