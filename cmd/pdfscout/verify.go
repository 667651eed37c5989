package main

import (
	"github.com/spf13/cobra"

	"github.com/veridoc/pdfscout/internal/casefile"
)

func newVerifyCmd(bctx *buildContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <bundle>",
		Short: "Verify evidence files against the digests in a case bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := casefile.Load(args[0])
			if err != nil {
				return err
			}

			report := bundle.Verify()
			cmd.Printf("verified:   %d\n", len(report.Verified))
			cmd.Printf("mismatched: %d\n", len(report.Mismatched))
			cmd.Printf("missing:    %d\n", len(report.Missing))
			for _, path := range report.Mismatched {
				cmd.Printf("  MISMATCH %s\n", path)
			}
			for _, path := range report.Missing {
				cmd.Printf("  MISSING  %s\n", path)
			}
			if len(report.Mismatched) > 0 {
				bctx.log.Warn().Int("count", len(report.Mismatched)).Msg("evidence files changed since scan")
			}
			return nil
		},
	}
}
