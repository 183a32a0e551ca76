package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".logsift"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for logsift settings.
const envPrefix = "LOGSIFT"

// Load resolves configuration with precedence flags > env > file > defaults.
// If configPath is non-empty it names the config file; otherwise
// .logsift.yaml is searched in the working directory and $HOME.
// A missing config file is not an error. Only flags the user set
// override lower layers; each flag binds to the key spelled with
// underscores in place of dashes.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config: %w", types.ErrConfig, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !isKnownKey(key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("%w: bind flags: %w", types.ErrConfig, bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %w", types.ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: validate config: %w", types.ErrConfig, err)
	}

	return &cfg, nil
}

var defaults = map[string]any{
	"grammars":         "",
	"rules":            DefaultRules,
	"include_rules":    []string{},
	"exclude_rules":    []string{},
	"kind":             DefaultKind,
	"engine":           DefaultEngine,
	"format":           DefaultFormat,
	"output_dir":       DefaultOutputDir,
	"store":            DefaultStore,
	"keep_unextracted": false,
	"log_level":        DefaultLogLevel,
	"color":            DefaultColor,
	"include_hidden":   false,
	"max_file_size":    int64(0),
}

func applyDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func isKnownKey(key string) bool {
	_, ok := defaults[key]
	return ok
}
