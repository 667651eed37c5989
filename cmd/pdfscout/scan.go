package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veridoc/pdfscout/internal/casefile"
	"github.com/veridoc/pdfscout/internal/render"
	"github.com/veridoc/pdfscout/internal/report"
	"github.com/veridoc/pdfscout/internal/scan"
)

func newScanCmd(bctx *buildContext) *cobra.Command {
	var (
		casePath string
		jsonPath string
	)

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Scan a directory tree of PDF files for alteration evidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			renderer := render.NewPdftoppmRenderer(bctx.cfg.PdftoppmPath, bctx.cfg.RenderTimeout)
			coordinator := scan.NewCoordinator(bctx.cfg, renderer, bctx.log)

			session, err := coordinator.Run(ctx, args[0])
			if err != nil {
				return err
			}

			printSummary(cmd, session)

			if casePath != "" {
				bundle := casefile.FromSession(session)
				if err := bundle.Save(casePath); err != nil {
					return err
				}
				bctx.log.Info().Str("path", casePath).Msg("case bundle saved")
			}
			if jsonPath != "" {
				f, err := os.Create(jsonPath)
				if err != nil {
					return fmt.Errorf("create report file: %w", err)
				}
				defer f.Close()
				records := report.Flatten(session.Documents, nil)
				if err := report.WriteJSON(f, records); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&casePath, "case", "", "Write a case bundle to this path")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write a JSON report to this path")
	return cmd
}

func printSummary(cmd *cobra.Command, session *scan.Session) {
	s := session.Summary
	cmd.Printf("scanned %d file(s) under %s\n", s.Files, session.Root)
	cmd.Printf("  clean:        %d\n", s.Clean)
	cmd.Printf("  indications:  %d\n", s.Indications)
	cmd.Printf("  high-risk:    %d\n", s.HighRisk)
	cmd.Printf("  errors:       %d\n", s.Errors)
	cmd.Printf("  revisions:    %d\n", s.Revisions)
}
