package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/veridoc/pdfscout/internal/config"
	"github.com/veridoc/pdfscout/internal/logging"
)

// buildContext carries resolved configuration and the logger into
// subcommand handlers.
type buildContext struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	cfg.Version = version
	bctx := &buildContext{cfg: cfg}

	root := &cobra.Command{
		Use:   "pdfscout",
		Short: "Forensic scanner for post-creation PDF alteration",
		Long: `pdfscout inspects PDF files for forensic evidence of post-creation
alteration: hidden prior revisions, metadata inconsistencies, tool-change
fingerprints and structural anomalies.`,
		Version:       fmt.Sprintf("%s (%s)", version, gitCommit),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.FromViper(cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			bctx.log = logging.New(logging.Options{
				Level: cfg.LogLevel,
				JSON:  cfg.LogJSON,
			})
			return nil
		},
	}

	config.BindFlags(root.PersistentFlags(), cfg)

	root.AddCommand(newScanCmd(bctx))
	root.AddCommand(newVerifyCmd(bctx))
	root.AddCommand(newExportCmd(bctx))
	return root
}
