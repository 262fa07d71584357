package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/devflow-sh/devflow/internal/config"
	pluginports "github.com/devflow-sh/devflow/internal/core/ports/plugin"
	"github.com/devflow-sh/devflow/internal/infrastructure/archive"
	"github.com/devflow-sh/devflow/internal/infrastructure/install"
	"github.com/devflow-sh/devflow/internal/infrastructure/registry"
)

var (
	verifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	officialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// newPluginCommand creates the plugin command group
func newPluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage devflow plugins",
		Long: `Discover, install, update, and remove devflow plugins.

Plugins are published in the devflow plugin registry and installed under
the local plugins directory, one subdirectory per plugin.`,
		Example: `  # List plugins available in the registry
  devflow plugin list

  # Install the git workflow plugin
  devflow plugin install git

  # Reinstall over an existing install
  devflow plugin install git --force

  # Update an installed plugin
  devflow plugin update git

  # Remove a plugin
  devflow plugin remove git`,
	}

	cmd.AddCommand(newPluginListCommand())
	cmd.AddCommand(newPluginInstalledCommand())
	cmd.AddCommand(newPluginInfoCommand())
	cmd.AddCommand(newPluginInstallCommand())
	cmd.AddCommand(newPluginRemoveCommand())
	cmd.AddCommand(newPluginUpdateCommand())
	cmd.AddCommand(newPluginBrowseCommand())

	return cmd
}

// pipeline bundles the wired distribution pipeline for a command run
type pipeline struct {
	cfg      *config.Config
	registry *registry.Client
	manager  *install.Manager
}

func newPipeline(cmd *cobra.Command) (*pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)

	registryClient := registry.NewClient(cfg.RegistryURL,
		registry.WithLogger(logger.Named("registry")),
		registry.WithTimeout(cfg.HTTPTimeout),
	)
	fetcher := archive.NewFetcher(cfg.ArchiveURL,
		archive.WithLogger(logger.Named("archive")),
		archive.WithTimeout(cfg.HTTPTimeout),
	)
	manager := install.NewManager(registryClient, fetcher, cfg.PluginsDir, Version, logger.Named("install"))

	return &pipeline{cfg: cfg, registry: registryClient, manager: manager}, nil
}

func newPluginListCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plugins available in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()

			fmt.Println("🔍 Fetching plugin registry...")
			index, err := p.registry.FetchRegistry(ctx, refresh)
			if err != nil {
				return err
			}

			if len(index.Plugins) == 0 {
				fmt.Println("The registry contains no plugins.")
				return nil
			}

			installed, err := p.manager.ListInstalled()
			if err != nil {
				return err
			}
			installedSet := make(map[string]bool, len(installed))
			for _, id := range installed {
				installedSet[id] = true
			}

			fmt.Printf("\nAvailable plugins (%d):\n\n", len(index.Plugins))
			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tCATEGORY\tVERIFIED\tSTATUS\tDESCRIPTION")
			for _, id := range sortedIDs(index.Plugins) {
				entry := index.Plugins[id]
				status := dimStyle.Render("available")
				if installedSet[id] {
					status = "installed"
				}
				verified := ""
				if entry.Verified {
					verified = verifiedStyle.Render("✔")
				}
				category := string(entry.Category)
				if entry.Category == "official" {
					category = officialStyle.Render(category)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					id, entry.LatestVersion, category, verified, status, entry.Description)
			}
			w.Flush()
			fmt.Println("\nTo install a plugin, run: devflow plugin install <id>")
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force a registry refresh")
	return cmd
}

func newPluginInstalledCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "installed",
		Short: "List installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}

			ids, err := p.manager.ListInstalled()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No plugins installed.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION")
			for _, id := range ids {
				version, err := p.manager.InstalledVersion(id)
				if err != nil {
					version = dimStyle.Render("unknown")
				}
				fmt.Fprintf(w, "%s\t%s\n", id, version)
			}
			w.Flush()
			return nil
		},
	}
}

func newPluginInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <plugin-id>",
		Short: "Show registry details for a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()

			entry, err := p.registry.GetPluginEntry(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s: %s\n\n", entry.DisplayName, entry.Description)
			fmt.Printf("  Version:      %s\n", entry.LatestVersion)
			fmt.Printf("  Category:     %s\n", entry.Category)
			fmt.Printf("  Verified:     %t\n", entry.Verified)
			fmt.Printf("  Source:       %s\n", entry.Source)
			if len(entry.Dependencies) > 0 {
				fmt.Printf("  Depends on:   %v\n", entry.Dependencies)
			}
			if len(entry.RuntimeDependencies) > 0 {
				fmt.Printf("  Runtime deps: %v\n", entry.RuntimeDependencies)
			}
			if entry.Homepage != "" {
				fmt.Printf("  Homepage:     %s\n", entry.Homepage)
			}
			if version, err := p.manager.InstalledVersion(args[0]); err == nil {
				fmt.Printf("\n  Installed version: %s\n", version)
			}
			return nil
		},
	}
}

func newPluginInstallCommand() *cobra.Command {
	var force bool
	var version string

	cmd := &cobra.Command{
		Use:   "install <plugin-id>",
		Short: "Install a plugin from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}

			pluginID := args[0]
			fmt.Printf("📦 Installing plugin: %s\n", pluginID)

			path, err := p.manager.Install(context.Background(), pluginID, pluginports.InstallOptions{
				Version: version,
				Force:   force,
			})
			if err != nil {
				return err
			}

			fmt.Printf("✅ Successfully installed %s to %s\n", pluginID, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing install")
	cmd.Flags().StringVar(&version, "version", "", "Pin the requested version")
	return cmd
}

func newPluginRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <plugin-id>",
		Short: "Remove an installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}

			pluginID := args[0]
			fmt.Printf("🗑️  Removing plugin: %s\n", pluginID)
			if err := p.manager.Uninstall(pluginID); err != nil {
				return err
			}
			fmt.Printf("✅ Successfully removed %s\n", pluginID)
			return nil
		},
	}
}

func newPluginUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update <plugin-id>",
		Short: "Update an installed plugin to the registry version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}

			pluginID := args[0]
			fmt.Printf("🔄 Updating plugin: %s\n", pluginID)
			path, err := p.manager.Update(context.Background(), pluginID)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Successfully updated %s at %s\n", pluginID, path)
			return nil
		},
	}
}
