package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/praetorian-inc/logsift/pkg/config"
	"github.com/praetorian-inc/logsift/pkg/report"
	"github.com/praetorian-inc/logsift/pkg/store"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/spf13/cobra"
)

var (
	reportOutput string
	reportList   bool
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show or re-emit the results of a stored scan run",
	Long: `Read a scan run recorded with "scan --store" and print its matches as a
table, or write its reports again in csv, json or sarif format. Without a
run ID the most recent run is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	flags := reportCmd.Flags()
	flags.String("store", config.DefaultStore, "SQLite file or postgres:// DSN holding scan runs")
	flags.String("output-dir", config.DefaultOutputDir, "Directory for re-emitted report files")
	flags.StringVarP(&reportOutput, "output", "o", "table", "Output: table, csv, json, sarif")
	flags.BoolVar(&reportList, "list", false, "List stored runs")
}

func runReport(cmd *cobra.Command, args []string) error {
	if cfg.Store == "" {
		return fmt.Errorf("no store configured: pass --store or set store in the config file")
	}
	s, err := store.New(store.Config{Path: cfg.Store})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	runs, err := s.GetRuns()
	if err != nil {
		return fmt.Errorf("reading runs: %w", err)
	}
	if reportList {
		return outputRuns(cmd, runs)
	}

	run, err := selectRun(runs, args)
	if err != nil {
		return err
	}
	outcomes, err := s.GetOutcomes(run.ID)
	if err != nil {
		return fmt.Errorf("reading outcomes: %w", err)
	}

	results := make([]*types.ScanResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Result != nil {
			results = append(results, o.Result)
		}
	}

	if reportOutput == "table" {
		return report.WriteTable(cmd.OutOrStdout(), results)
	}

	format, err := report.ParseFormat(reportOutput)
	if err != nil {
		return err
	}
	emitter, err := report.NewEmitter(format, cfg.OutputDir)
	if err != nil {
		return err
	}
	for _, result := range results {
		path, err := emitter.Emit(result)
		if err != nil {
			return fmt.Errorf("writing report for %s: %w", result.Path, err)
		}
		if path != "" {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
	}
	return nil
}

func selectRun(runs []*types.Run, args []string) (*types.Run, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("store holds no runs")
	}
	if len(args) == 0 {
		return runs[len(runs)-1], nil
	}
	for _, r := range runs {
		if r.ID == args[0] {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run %s not found", args[0])
}

func outputRuns(cmd *cobra.Command, runs []*types.Run) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"ID", "Started", "Rules", "Grammars"})
	for _, r := range runs {
		grammars := r.Grammars
		if grammars == "" {
			grammars = "builtin"
		}
		tbl.AppendRow(table.Row{r.ID, humanize.Time(r.StartedAt), r.Rules, grammars})
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
	return err
}
