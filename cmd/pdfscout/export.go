package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridoc/pdfscout/internal/casefile"
	"github.com/veridoc/pdfscout/internal/report"
)

func newExportCmd(bctx *buildContext) *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export <bundle>",
		Short: "Export the record set of a case bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := casefile.Load(args[0])
			if err != nil {
				return err
			}
			records := report.Flatten(bundle.Documents, bundle.Annotations)

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "json":
				return report.WriteJSON(out, records)
			case "csv":
				return report.WriteCSV(out, records)
			default:
				return fmt.Errorf("unknown export format %q (json or csv)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or json")
	cmd.Flags().StringVar(&outPath, "out", "", "Write to this path instead of stdout")
	return cmd
}
