package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/praetorian-inc/logsift/pkg/rule"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/spf13/cobra"
)

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage detection rules",
	Long:  "Commands for listing and checking YAML detection rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long:  "Display the rules of the configured rule source with their IDs and names",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check rules against their own examples",
	Long: `Compile every rule of the configured rule source and run it against its
examples (which must match) and negative examples (which must not).`,
	Args: cobra.NoArgs,
	RunE: runRulesCheck,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesListCmd.Flags().StringVarP(&rulesOutput, "output", "o", "table", "Output format: table, json")
}

func loadRules() ([]*types.Rule, error) {
	rules, err := rule.NewLoader().Load(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", cfg.Rules, err)
	}
	return rule.Filter(rules, cfg.Filter())
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	switch rulesOutput {
	case "json":
		return outputRulesJSON(cmd, rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", rulesOutput)
	}
}

func outputRulesJSON(cmd *cobra.Command, rules []*types.Rule) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(rules)
}

func outputRulesTable(cmd *cobra.Command, rules []*types.Rule) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"ID", "Name", "Categories", "Keywords"})
	for _, r := range rules {
		tbl.AppendRow(table.Row{r.ID, r.Name, strings.Join(r.Categories, ", "), len(r.Keywords)})
	}
	tbl.AppendFooter(table.Row{"", "", "Total", len(rules)})

	_, err := fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
	return err
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range rules {
		if err := rule.ValidateRule(r); err != nil {
			return err
		}
	}

	failures, err := rule.CheckExamples(rules)
	if err != nil {
		return err
	}
	for _, f := range failures {
		fmt.Fprintln(out, f.String())
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d example checks failed", len(failures))
	}
	fmt.Fprintf(out, "%d rules OK\n", len(rules))
	return nil
}
