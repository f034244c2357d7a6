package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apimsync/apimsync/pkg/fsops"
	"github.com/apimsync/apimsync/pkg/publish"
)

func newGraphCmd() *cobra.Command {
	var (
		outputFolder string
		format       string
		output       string
		detailed     bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the dependency graph of a service directory",
		Long: `Graph builds the publisher's dependency graph from the live tree in
the service directory and renders it as DOT or SVG. Use it to inspect the
order a publish run would apply resources in, or to see the offending
path when relationship validation reports a cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			applyFlag(&settings.OutputFolder, outputFolder)
			serviceDir, err := settings.requireOutputFolder()
			if err != nil {
				return err
			}

			parser := &publish.Parser{ServiceDir: serviceDir, Ops: fsops.Local(serviceDir)}
			rel, err := publish.BuildRelationships(cmd.Context(), parser)
			if err != nil {
				printError("building relationships: %v", err)
				return err
			}

			opts := publish.DotOptions{Detailed: detailed}
			var data []byte
			switch format {
			case "dot":
				data = []byte(rel.ToDOT(opts))
			case "svg":
				sp := newSpinner(cmd.Context(), "rendering graph")
				sp.Start()
				data, err = rel.RenderSVG(cmd.Context(), opts)
				if err != nil {
					sp.StopWithError("rendering failed")
					return err
				}
				sp.Stop()
			default:
				return fmt.Errorf("invalid format: %q (must be dot or svg)", format)
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("graph rendered")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFolder, "output-folder", "o", "", "service directory holding the tree")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or svg")
	cmd.Flags().StringVar(&output, "output", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include kind nouns in node labels")

	return cmd
}
