package cli

import (
	"github.com/spf13/cobra"

	"github.com/apimsync/apimsync/pkg/apim"
	"github.com/apimsync/apimsync/pkg/config"
	"github.com/apimsync/apimsync/pkg/publish"
)

func newPublishCmd() *cobra.Command {
	var (
		outputFolder string
		serviceURL   string
		apiVersion   string
		configPath   string
		commitID     string
		repoDir      string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Apply a directory tree (or a commit diff) to a live service",
		Long: `Publish parses the tree into a resource set, builds the dependency
graph over it, and drives parallel creates/updates before dependents and
parallel deletes after dependents. With a commit id, only the files the
commit touched are processed and its parent commit becomes the "previous"
side for delete resolution.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			applyFlag(&settings.OutputFolder, outputFolder)
			applyFlag(&settings.ServiceURL, serviceURL)
			applyFlag(&settings.APIVersion, apiVersion)
			applyFlag(&settings.ConfigurationPath, configPath)
			applyFlag(&settings.CommitID, commitID)

			serviceDir, err := settings.requireOutputFolder()
			if err != nil {
				return err
			}
			managementURL, err := settings.managementURL()
			if err != nil {
				return err
			}

			client, err := apim.NewClient(apim.Options{
				ServiceURL: managementURL,
				Token:      settings.Token,
				APIVersion: settings.APIVersion,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			publisher := &publish.Publisher{
				Client:     client,
				ServiceDir: serviceDir,
				RepoDir:    repoDir,
				CommitID:   settings.CommitID,
				Matcher:    config.NewMatcher(settings.ConfigurationPath),
				Logger:     logger,
				DryRun:     dryRun,
			}

			prog := newProgress(logger)
			if err := publisher.Run(cmd.Context()); err != nil {
				printError("publish failed: %v", err)
				return err
			}
			prog.done("publish complete")
			if dryRun {
				printInfo("dry run: no changes were made")
			} else {
				printSuccess("service published")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFolder, "output", "o", "", "service directory holding the tree")
	cmd.Flags().StringVar(&serviceURL, "service-url", "", "full management URL of the service")
	cmd.Flags().StringVar(&apiVersion, "api-version", "", "management API version")
	cmd.Flags().StringVarP(&configPath, "configuration", "c", "", "override configuration file")
	cmd.Flags().StringVar(&commitID, "commit-id", "", "publish only the diff introduced by this commit")
	cmd.Flags().StringVar(&repoDir, "repo", "", "git repository root (defaults to the working directory)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and log the plan without touching the service")

	return cmd
}
