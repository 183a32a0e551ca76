// Package config resolves logsift settings from flags, environment,
// a config file and defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/logsift/pkg/matcher"
	"github.com/praetorian-inc/logsift/pkg/report"
	"github.com/praetorian-inc/logsift/pkg/rule"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
)

// Default values for configuration keys.
const (
	DefaultRules     = rule.BuiltinSource
	DefaultKind      = string(types.KindText)
	DefaultEngine    = string(matcher.BackendAuto)
	DefaultFormat    = string(report.FormatCSV)
	DefaultOutputDir = "."
	DefaultLogLevel  = "info"
	DefaultColor     = string(report.ColorAuto)
	DefaultStore     = ""
)

// Config is the resolved logsift configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// Grammars is a grammar file path; empty selects the embedded set.
	Grammars string `mapstructure:"grammars"`

	// Rules is a rule source: a YAML or YARA file, a directory, or "builtin".
	Rules        string   `mapstructure:"rules"`
	IncludeRules []string `mapstructure:"include_rules"`
	ExcludeRules []string `mapstructure:"exclude_rules"`

	Kind            string `mapstructure:"kind"`
	Engine          string `mapstructure:"engine"`
	Format          string `mapstructure:"format"`
	OutputDir       string `mapstructure:"output_dir"`
	Store           string `mapstructure:"store"`
	KeepUnextracted bool   `mapstructure:"keep_unextracted"`
	LogLevel        string `mapstructure:"log_level"`
	Color           string `mapstructure:"color"`
	IncludeHidden   bool   `mapstructure:"include_hidden"`
	MaxFileSize     int64  `mapstructure:"max_file_size"`
}

var (
	// ErrNoRules indicates the rule source is empty.
	ErrNoRules = errors.New("rules must not be empty")
	// ErrInvalidMaxFileSize indicates a negative size limit.
	ErrInvalidMaxFileSize = errors.New("max_file_size must be non-negative")
)

// Validate checks that every enumerated key holds a known value.
func (c *Config) Validate() error {
	if c.Rules == "" {
		return ErrNoRules
	}
	if c.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}
	if _, err := c.FileKind(); err != nil {
		return err
	}
	if _, err := c.Backend(); err != nil {
		return err
	}
	if _, err := c.ReportFormat(); err != nil {
		return err
	}
	if _, err := c.ColorMode(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// FileKind returns the parsed kind.
func (c *Config) FileKind() (types.FileKind, error) {
	return types.ParseFileKind(c.Kind)
}

// Backend returns the parsed rule engine.
func (c *Config) Backend() (matcher.Backend, error) {
	return matcher.ParseBackend(c.Engine)
}

// ReportFormat returns the parsed report format.
func (c *Config) ReportFormat() (report.Format, error) {
	return report.ParseFormat(c.Format)
}

// ColorMode returns the parsed status colour mode.
func (c *Config) ColorMode() (report.ColorMode, error) {
	return report.ParseColorMode(c.Color)
}

// Level returns the parsed log level.
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Filter returns the rule ID filter.
func (c *Config) Filter() rule.FilterConfig {
	return rule.FilterConfig{Include: c.IncludeRules, Exclude: c.ExcludeRules}
}
