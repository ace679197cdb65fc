package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/knoxfighter/factorio-lib/internal/config"
	"github.com/knoxfighter/factorio-lib/pkg/logging"
)

const version = "0.1.0"

var (
	configPath  string
	versionFlag bool
	rootCmd     *cobra.Command

	// Set by loadConfig before any subcommand runs.
	cfg    *config.Config
	logger hclog.Logger
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion() {
	fmt.Printf("factorio-save-header %s\n", version)
	fmt.Printf("Built: %s\n", getBuildTimestamp())
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "factorio-save-header",
		Short: "Read Factorio save headers",
		Long: `Read the metadata header of Factorio save files without loading the map:
game version, scenario, difficulty, flags and the list of active mods.`,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion()
				return nil
			}
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/factorio-save-header/config.yaml)")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.Bool("json-log", false, "Write logs as JSON")
	flags.String("command-mapping", "", "Allowed-commands byte mapping (one-based, zero-based)")
	flags.Uint64("max-string-length", 0, "Longest accepted header string in bytes")
	flags.String("entry-ops", "", "Codecs applied to the header entry beyond its name, e.g. zstd|gzip")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	rootCmd.AddCommand(newShowCmd(), newListCmd(), newErasCmd(), newVerifyCmd())
}

// loadConfig resolves settings with the invoked command's flags bound.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, _, err := config.Load(config.LoadOptions{
		ConfigFilePath: configPath,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return err
	}
	cfg = loaded
	logger = logging.NewLoggerWithFormat("factorio-save-header", cfg.LogLevel, os.Stderr, cfg.JSONLog)
	logger.Debug("Configuration loaded", "format", cfg.Format, "workers", cfg.Workers, "command_mapping", cfg.CommandMapping, "entry_ops", cfg.EntryOps)
	return nil
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("❌ Command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
