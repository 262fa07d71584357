package cli

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/devflow-sh/devflow/internal/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// NewRootCommand builds the base devflow command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devflow",
		Short: "devflow - pluggable developer workflow automation",
		Long: `devflow automates git, GitHub, and Jira developer workflows through
installable plugins published in the devflow plugin registry.

Use the plugin subcommands to browse the registry and manage the plugins
installed on this machine.`,
		Version: Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default is $HOME/.devflow/config.yaml)")

	rootCmd.AddCommand(newPluginCommand())

	return rootCmd
}

func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// loadConfig resolves the effective configuration for a command invocation
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger from config
func newLogger(cfg *config.Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "devflow",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: os.Stderr,
	})
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
