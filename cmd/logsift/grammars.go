package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/praetorian-inc/logsift/pkg/detect"
	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/spf13/cobra"
)

var grammarsCmd = &cobra.Command{
	Use:   "grammars",
	Short: "Inspect log grammars",
	Long:  "Commands for listing log grammars and detecting which one a file follows",
}

var grammarsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List grammars in detection order",
	Args:  cobra.NoArgs,
	RunE:  runGrammarsList,
}

var grammarsDetectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Detect the grammar of log files",
	Long: `Detect the grammar of each file from its first ` + strconv.Itoa(detect.SampleSize) + ` lines, the same
way a text scan does.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGrammarsDetect,
}

func init() {
	grammarsCmd.AddCommand(grammarsListCmd)
	grammarsCmd.AddCommand(grammarsDetectCmd)
}

func runGrammarsList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("loading grammars: %w", err)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Name", "Component", "Content", "Pattern"})
	for i, g := range reg.All() {
		component, content := "-", "-"
		if g.HasGroups {
			component = strconv.Itoa(g.Groups.Component)
			content = strconv.Itoa(g.Groups.Content)
		}
		tbl.AppendRow(table.Row{i + 1, g.Name, component, content, g.Pattern})
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
	return err
}

func runGrammarsDetect(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("loading grammars: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, path := range args {
		name, size, err := detectFile(path, reg)
		if err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", path, err)
			continue
		}
		if name == "" {
			name = "none"
		}
		fmt.Fprintf(out, "%s: %s (%s)\n", path, name, humanize.Bytes(uint64(size)))
	}
	return nil
}

func detectFile(path string, reg *grammar.Registry) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	sample, err := detect.ReadSample(bufio.NewReader(f))
	if err != nil {
		return "", 0, err
	}
	name, _ := detect.Detect(sample, reg)
	return name, info.Size(), nil
}
