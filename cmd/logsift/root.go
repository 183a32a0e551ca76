package main

import (
	"fmt"
	"io"

	"github.com/praetorian-inc/logsift/pkg/config"
	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/praetorian-inc/logsift/pkg/matcher"
	"github.com/praetorian-inc/logsift/pkg/scan"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	quiet      bool

	// cfg and logger are resolved once per invocation before any
	// subcommand runs.
	cfg    *config.Config
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "logsift - rule-based log and artifact scanner",
	Long: `logsift scans log files, binaries, scripts, databases and config files
against detection rules. For text logs it detects the log format from the
first lines of the file and reports the component and message of every
matching line.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default .logsift.yaml in the working directory or $HOME)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	flags.String("log-level", config.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	flags.String("color", config.DefaultColor, "Status colors: auto, always, never")
	flags.String("grammars", "", "Path to a grammar file (default: embedded grammars)")
	flags.String("rules", config.DefaultRules, "Rule source: YAML/YARA file, directory, or \"builtin\"")
	flags.StringSlice("include-rules", nil, "Include rules whose ID matches a regex (repeatable)")
	flags.StringSlice("exclude-rules", nil, "Exclude rules whose ID matches a regex (repeatable)")
	flags.String("engine", config.DefaultEngine, "Rule engine: auto, regexp, hyperscan, yara")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(grammarsCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = c
	return setupLogger(cmd.ErrOrStderr())
}

func setupLogger(out io.Writer) error {
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	switch {
	case quiet:
		lvl = logrus.ErrorLevel
	case verbose:
		lvl = logrus.DebugLevel
	}
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// loadRegistry loads the configured grammars, or the embedded set.
func loadRegistry() (*grammar.Registry, error) {
	if cfg.Grammars != "" {
		return grammar.LoadFile(cfg.Grammars)
	}
	return grammar.LoadBuiltin()
}

// newScanner builds the scan orchestrator from the resolved config.
func newScanner(opts ...scan.Option) (*scan.Scanner, *grammar.Registry, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("loading grammars: %w", err)
	}
	backend, err := cfg.Backend()
	if err != nil {
		return nil, nil, err
	}
	compiler := matcher.NewCompiler(matcher.Config{
		Backend: backend,
		Filter:  cfg.Filter(),
		Logger:  logger,
	})
	opts = append([]scan.Option{
		scan.WithLogger(logger),
		scan.WithKeepUnextracted(cfg.KeepUnextracted),
	}, opts...)
	return scan.New(reg, compiler, opts...), reg, nil
}
