package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/logsift/pkg/config"
	"github.com/praetorian-inc/logsift/pkg/report"
	"github.com/praetorian-inc/logsift/pkg/serve"
	"github.com/spf13/cobra"
)

var serveReports bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming scan server",
	Long: `Run logsift as a long-lived streaming server that accepts scan requests
via stdin and writes outcomes to stdout using NDJSON format.

The process loads grammars once at startup and processes requests until
stdin closes, a close request arrives, or SIGTERM is received.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("kind", config.DefaultKind, "Default file kind for requests that omit one")
	flags.String("format", config.DefaultFormat, "Report format when --reports is set: csv, json, sarif")
	flags.String("output-dir", config.DefaultOutputDir, "Directory for report files when --reports is set")
	flags.Bool("keep-unextracted", false, "Report rule hits on lines whose fields could not be extracted as N/A")
	flags.BoolVar(&serveReports, "reports", false, "Write a report file for every successful scan")
}

func runServe(cmd *cobra.Command, args []string) error {
	scanner, reg, err := newScanner()
	if err != nil {
		return err
	}
	kind, err := cfg.FileKind()
	if err != nil {
		return err
	}

	opts := serve.Options{
		Rules:    cfg.Rules,
		Kind:     kind,
		Grammars: reg.Names(),
		Logger:   logger,
	}
	if serveReports {
		format, err := cfg.ReportFormat()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return err
		}
		if opts.Emitter, err = report.NewEmitter(format, cfg.OutputDir); err != nil {
			return err
		}
	}

	// Set up signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv := serve.NewServer(scanner, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
	err = srv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
