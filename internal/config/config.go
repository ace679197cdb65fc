// Package config loads CLI settings from defaults, an optional config file,
// FACTORIO_* environment variables and command-line flags, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/knoxfighter/factorio-lib/pkg/render"
	"github.com/knoxfighter/factorio-lib/pkg/saves/container"
	"github.com/knoxfighter/factorio-lib/pkg/saves/header"
	"github.com/knoxfighter/factorio-lib/pkg/saves/operations"
)

const (
	// AppName names the config directory.
	AppName = "factorio-save-header"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FACTORIO"
)

// Config holds every setting the CLI reads.
type Config struct {
	LogLevel        string `mapstructure:"log_level"`
	JSONLog         bool   `mapstructure:"json_log"`
	Format          string `mapstructure:"format"`
	Digest          string `mapstructure:"digest"`
	CommandMapping  string `mapstructure:"command_mapping"`
	MaxStringLength uint64 `mapstructure:"max_string_length"`
	Workers         int    `mapstructure:"workers"`
	SavesDir        string `mapstructure:"saves_dir"`
	// EntryOps is a pipe-separated codec chain such as "zstd", applied to
	// header entries on top of what their names show.
	EntryOps string `mapstructure:"entry_ops"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "warn",
		Format:          string(render.FormatText),
		CommandMapping:  header.CommandsOneBased.String(),
		MaxStringLength: 1 << 20,
		Workers:         runtime.NumCPU(),
	}
}

// LoadOptions controls where settings come from.
type LoadOptions struct {
	// ConfigFilePath is used exclusively when set and must exist.
	ConfigFilePath string
	// ConfigDirPath replaces the platform config directory.
	ConfigDirPath string
	// Flags are bound by key name; only flags the user set take effect.
	Flags *pflag.FlagSet
}

// ConfigDir returns the platform config directory for the CLI.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName), nil
		}
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Load resolves the configuration. It returns the config file used, or ""
// when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("json_log", defaults.JSONLog)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("digest", defaults.Digest)
	v.SetDefault("command_mapping", defaults.CommandMapping)
	v.SetDefault("max_string_length", defaults.MaxStringLength)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("saves_dir", defaults.SavesDir)
	v.SetDefault("entry_ops", defaults.EntryOps)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			dir, err := ConfigDir()
			if err != nil {
				return nil, "", err
			}
			cfgDir = dir
		}

		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(cfgDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("failed to load config: %w", err)
			}
		} else {
			resolvedPath = v.ConfigFileUsed()
		}
	}

	if opts.Flags != nil {
		for _, key := range v.AllKeys() {
			if f := opts.Flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

// flagName maps a config key to its flag, e.g. log_level to log-level.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Validate checks values that have a fixed vocabulary.
func (c *Config) Validate() error {
	if _, err := render.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if c.Digest != "" {
		if _, err := container.ParseAlgorithm(c.Digest); err != nil {
			return fmt.Errorf("digest: %w", err)
		}
	}
	if _, err := header.ParseCommandMapping(c.CommandMapping); err != nil {
		return fmt.Errorf("command_mapping: %w", err)
	}
	// Zero means one worker per CPU.
	if c.Workers < 0 {
		return fmt.Errorf("workers: must not be negative, got %d", c.Workers)
	}
	if _, err := operations.ParseOperations(c.EntryOps); err != nil {
		return fmt.Errorf("entry_ops: %w", err)
	}
	return nil
}

// DecoderOptions turns the decoder-related settings into header options.
func (c *Config) DecoderOptions() (header.Options, error) {
	mapping, err := header.ParseCommandMapping(c.CommandMapping)
	if err != nil {
		return header.Options{}, fmt.Errorf("command_mapping: %w", err)
	}
	return header.Options{
		CommandMapping:  mapping,
		MaxStringLength: c.MaxStringLength,
	}, nil
}

// EntryOperations parses EntryOps into a chain in application order.
func (c *Config) EntryOperations() ([]uint8, error) {
	ops, err := operations.ParseOperations(c.EntryOps)
	if err != nil {
		return nil, fmt.Errorf("entry_ops: %w", err)
	}
	return ops, nil
}
