package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/praetorian-inc/logsift/pkg/config"
	"github.com/praetorian-inc/logsift/pkg/enum"
	"github.com/praetorian-inc/logsift/pkg/report"
	"github.com/praetorian-inc/logsift/pkg/scan"
	"github.com/praetorian-inc/logsift/pkg/store"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var scanTable bool

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Scan files or directories against detection rules",
	Long: `Scan files, or every file under a directory, against detection rules.

One status line is printed per file. Files with at least one match get a
report named <name>_report.<format> in the output directory. A file that
cannot be scanned is reported with an [ERROR] status line; the remaining
files are still scanned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	flags := scanCmd.Flags()
	flags.String("kind", config.DefaultKind, "File kind: text, binary, script, database, config, auto")
	flags.String("format", config.DefaultFormat, "Report format: csv, json, sarif")
	flags.String("output-dir", config.DefaultOutputDir, "Directory for report files")
	flags.String("store", config.DefaultStore, "Record the run in a SQLite file, postgres:// DSN, or :memory:")
	flags.Bool("keep-unextracted", false, "Report rule hits on lines whose fields could not be extracted as N/A")
	flags.Bool("include-hidden", false, "Include hidden files and directories")
	flags.Int64("max-file-size", 0, "Skip files larger than this many bytes (0 = no limit)")
	flags.BoolVar(&scanTable, "table", false, "Print all matches as a table after scanning")
}

func runScan(cmd *cobra.Command, args []string) error {
	kind, err := cfg.FileKind()
	if err != nil {
		return err
	}
	format, err := cfg.ReportFormat()
	if err != nil {
		return err
	}
	colors, err := cfg.ColorMode()
	if err != nil {
		return err
	}

	emitter, err := report.NewEmitter(format, cfg.OutputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var s store.Store
	if cfg.Store != "" {
		s, err = store.New(store.Config{Path: cfg.Store})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		defer s.Close()
	}

	paths, err := collectTargets(cmd.Context(), args, enum.Config{
		IncludeHidden: cfg.IncludeHidden,
		MaxFileSize:   cfg.MaxFileSize,
	})
	if err != nil {
		return fmt.Errorf("enumerating targets: %w", err)
	}

	run := &types.Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Rules:     cfg.Rules,
		Grammars:  cfg.Grammars,
	}
	if s != nil {
		if err := s.AddRun(run); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
	}

	printer := report.NewStatusPrinter(cmd.OutOrStdout(), colors)
	log := logger.WithField("run", run.ID)

	// Reports are named after the scanned file's base name, so two inputs
	// named alike in different directories share a report path.
	written := make(map[string]string)

	scanner, _, err := newScanner(scan.WithOutcomeHandler(func(o *types.Outcome) {
		if o.Status == types.StatusSuccess {
			path, err := emitter.Emit(o.Result)
			if err != nil {
				o.Status = types.StatusError
				o.Error = err.Error()
			}
			o.ReportPath = path
			if path != "" {
				if prev, ok := written[path]; ok {
					log.WithFields(logrus.Fields{"report": path, "previous": prev, "path": o.Path}).
						Warn("report overwritten by a file with the same name")
				}
				written[path] = o.Path
			}
		}
		printer.Print(o)
		if s != nil {
			if err := s.AddOutcome(run.ID, o); err != nil {
				log.WithError(err).WithField("path", o.Path).Warn("failed to store outcome")
			}
		}
	}))
	if err != nil {
		return err
	}

	targets := make([]scan.Target, len(paths))
	for i, p := range paths {
		targets[i] = scan.Target{Path: p, Rules: cfg.Rules, Kind: kind}
	}
	outcomes := scanner.Run(targets)

	log.WithFields(logrus.Fields{"files": len(outcomes), "matched": countStatus(outcomes, types.StatusSuccess)}).Info("scan complete")

	if scanTable {
		results := make([]*types.ScanResult, 0, len(outcomes))
		for _, o := range outcomes {
			results = append(results, o.Result)
		}
		return report.WriteTable(cmd.OutOrStdout(), results)
	}
	return nil
}

// collectTargets expands directory arguments into their files. Arguments
// that cannot be stat'ed are kept as-is so the scan reports them.
func collectTargets(ctx context.Context, args []string, cfg enum.Config) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var paths []string
	for _, arg := range args {
		if _, err := os.Stat(arg); err != nil {
			paths = append(paths, arg)
			continue
		}
		found, err := enum.Paths(ctx, []string{arg}, cfg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func countStatus(outcomes []*types.Outcome, status types.Status) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
