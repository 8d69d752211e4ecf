// Package config loads sqlequiv settings from an optional YAML file,
// SQLEQUIV_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SQLEQUIV_SOLVER_TIMEOUT.
const EnvPrefix = "SQLEQUIV"

// Keys.
const (
	KeySolverCommand = "solver.command"
	KeySolverArgs    = "solver.args"
	KeySolverTimeout = "solver.timeout"
	KeyOutputFormat  = "output.format"
	KeyOutputColor   = "output.color"
	KeyHistoryPath   = "history.path"
	KeyLogLevel      = "log.level"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Solver struct {
		Command string        `mapstructure:"command"`
		Args    []string      `mapstructure:"args"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"solver"`

	Output struct {
		Format string `mapstructure:"format"`
		Color  string `mapstructure:"color"`
	} `mapstructure:"output"`

	History struct {
		// Path of the SQLite history database; empty disables history.
		Path string `mapstructure:"path"`
	} `mapstructure:"history"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySolverCommand, "z3")
	v.SetDefault(KeySolverArgs, []string{"-in", "-smt2"})
	v.SetDefault(KeySolverTimeout, 10*time.Second)
	v.SetDefault(KeyOutputFormat, "text")
	v.SetDefault(KeyOutputColor, ColorAuto)
	v.SetDefault(KeyHistoryPath, "")
	v.SetDefault(KeyLogLevel, "warn")
}

// Load reads the configuration. path names a config file; when empty,
// ./sqlequiv.yaml is used if it exists. flags maps config keys to the
// flags that override them; a flag only wins when the user set it.
func Load(path string, flags map[string]*pflag.Flag) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("sqlequiv")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config %s: must be text or json, got %q", KeyOutputFormat, c.Output.Format)
	}
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("config %s: must be auto, always or never, got %q", KeyOutputColor, c.Output.Color)
	}
	if c.Solver.Timeout <= 0 {
		return fmt.Errorf("config %s: must be positive, got %s", KeySolverTimeout, c.Solver.Timeout)
	}
	if c.Solver.Command == "" {
		return fmt.Errorf("config %s: must not be empty", KeySolverCommand)
	}
	return nil
}
