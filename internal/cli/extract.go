package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apimsync/apimsync/pkg/apim"
	"github.com/apimsync/apimsync/pkg/apispec"
	"github.com/apimsync/apimsync/pkg/config"
	"github.com/apimsync/apimsync/pkg/extract"
)

func newExtractCmd() *cobra.Command {
	var (
		outputFolder string
		serviceURL   string
		apiVersion   string
		configPath   string
		specFormat   string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Snapshot a live service into the canonical directory tree",
		Long: `Extract walks the service's resource forest top-down in parallel and
writes the canonical tree: JSON information files, raw XML policies, and
API specifications. A configuration file can narrow what is extracted;
resource kinds the service SKU does not support are skipped.`,
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
			applyFlag(&settings.SpecFormat, specFormat)

			serviceDir, err := settings.requireOutputFolder()
			if err != nil {
				return err
			}
			managementURL, err := settings.managementURL()
			if err != nil {
				return err
			}
			defaultSpec, err := apispec.ParseDefault(settings.SpecFormat)
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

			extractor := &extract.Extractor{
				Client:      client,
				ServiceDir:  serviceDir,
				Matcher:     config.NewMatcher(settings.ConfigurationPath),
				DefaultSpec: defaultSpec,
				Logger:      logger,
			}

			prog := newProgress(logger)
			if err := extractor.Run(cmd.Context()); err != nil {
				printError("extraction failed: %v", err)
				return err
			}
			prog.done("extraction complete")
			printSuccess("service extracted")
			printFile(serviceDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFolder, "output", "o", "", fmt.Sprintf("service directory (default: $%s)", envOutputFolder))
	cmd.Flags().StringVar(&serviceURL, "service-url", "", "full management URL of the service")
	cmd.Flags().StringVar(&apiVersion, "api-version", "", "management API version")
	cmd.Flags().StringVarP(&configPath, "configuration", "c", "", "inclusion/override configuration file")
	cmd.Flags().StringVar(&specFormat, "specification-format", "", "default API specification format")

	return cmd
}

// applyFlag overlays a flag value onto a setting; flags win over
// environment and file values.
func applyFlag(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
