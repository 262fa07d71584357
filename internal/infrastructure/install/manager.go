package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
	pluginports "github.com/devflow-sh/devflow/internal/core/ports/plugin"
	"github.com/devflow-sh/devflow/internal/infrastructure/validation"
)

// Manager orchestrates the plugin lifecycle: resolve against the registry,
// fetch the source snapshot, validate it, and copy it into the install
// root. One subdirectory per plugin id; plugin.json presence is the sole
// install marker.
//
// Operations are synchronous and not crash-safe: a crash mid-copy leaves a
// directory recoverable only by uninstall followed by install. Concurrent
// installers racing on the same id are last-writer-wins.
type Manager struct {
	registry    pluginports.RegistryClient
	fetcher     pluginports.ArchiveFetcher
	installRoot string
	hostVersion string
	logger      hclog.Logger
}

// NewManager creates a Manager installing under installRoot for a host
// running hostVersion.
func NewManager(registry pluginports.RegistryClient, fetcher pluginports.ArchiveFetcher, installRoot, hostVersion string, logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{
		registry:    registry,
		fetcher:     fetcher,
		installRoot: installRoot,
		hostVersion: hostVersion,
		logger:      logger,
	}
}

// Install downloads, validates, and installs a plugin, returning the
// install path. An invalid plugin never reaches the install root: every
// validator runs against the temporary extraction area before any copy.
// Any failure surfaces as an InstallError wrapping the original cause.
func (m *Manager) Install(ctx context.Context, pluginID string, opts pluginports.InstallOptions) (string, error) {
	path, err := m.install(ctx, pluginID, opts)
	if err != nil {
		return "", &plugindomain.InstallError{ID: pluginID, Err: err}
	}
	return path, nil
}

func (m *Manager) install(ctx context.Context, pluginID string, opts pluginports.InstallOptions) (string, error) {
	entry, err := m.registry.GetPluginEntry(ctx, pluginID)
	if err != nil {
		return "", err
	}

	if opts.Version != "" && opts.Version != entry.LatestVersion {
		return "", fmt.Errorf("version %s is not available; registry offers %s", opts.Version, entry.LatestVersion)
	}

	installPath := filepath.Join(m.installRoot, pluginID)
	if _, err := os.Stat(installPath); err == nil {
		if !opts.Force {
			return "", &plugindomain.AlreadyInstalledError{ID: pluginID, Path: installPath}
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check install path: %w", err)
	}

	m.logger.Info("fetching plugin source", "plugin", pluginID, "version", entry.LatestVersion)
	pluginDir, cleanup, err := m.fetcher.FetchPluginSource(ctx, entry)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return "", err
	}

	metadata, err := validation.ValidateMetadata(pluginDir)
	if err != nil {
		return "", err
	}
	if err := validation.ValidateEntryPoint(pluginDir, metadata.EntryPoint); err != nil {
		return "", err
	}
	if err := validation.ValidateCompatibility(metadata, m.hostVersion); err != nil {
		return "", err
	}

	installed, err := m.ListInstalled()
	if err != nil {
		return "", err
	}
	missing, err := validation.ValidateDependencies(metadata, installed)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		// Dependencies are reported, never auto-installed.
		m.logger.Warn("plugin declares dependencies that are not installed", "plugin", pluginID, "missing", missing)
	}

	if err := os.MkdirAll(m.installRoot, 0755); err != nil {
		return "", err
	}
	if opts.Force {
		if err := os.RemoveAll(installPath); err != nil {
			return "", err
		}
	}
	if err := os.CopyFS(installPath, os.DirFS(pluginDir)); err != nil {
		// Leave no half-copied directory behind.
		os.RemoveAll(installPath)
		return "", err
	}

	m.logger.Info("installed plugin", "plugin", pluginID, "version", metadata.Version, "path", installPath)
	return installPath, nil
}

// Uninstall removes an installed plugin's directory. Removal is not
// atomic: a failure mid-delete can leave a partially removed directory.
func (m *Manager) Uninstall(pluginID string) error {
	installPath := filepath.Join(m.installRoot, pluginID)
	if _, err := os.Stat(installPath); os.IsNotExist(err) {
		return &plugindomain.NotInstalledError{ID: pluginID}
	}
	if err := os.RemoveAll(installPath); err != nil {
		return fmt.Errorf("failed to remove plugin %q: %w", pluginID, err)
	}
	m.logger.Info("uninstalled plugin", "plugin", pluginID)
	return nil
}

// Update reinstalls a plugin over its current version.
func (m *Manager) Update(ctx context.Context, pluginID string) (string, error) {
	return m.Install(ctx, pluginID, pluginports.InstallOptions{Force: true})
}

// ListInstalled returns the ids of every immediate subdirectory of the
// install root containing a plugin manifest, in lexicographic order.
func (m *Manager) ListInstalled() ([]string, error) {
	entries, err := os.ReadDir(m.installRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read install root: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest := filepath.Join(m.installRoot, entry.Name(), plugindomain.ManifestFileName)
		if _, err := os.Stat(manifest); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// InstalledVersion reports the version recorded in an installed plugin's
// manifest.
func (m *Manager) InstalledVersion(pluginID string) (string, error) {
	installPath := filepath.Join(m.installRoot, pluginID)
	if _, err := os.Stat(installPath); os.IsNotExist(err) {
		return "", &plugindomain.NotInstalledError{ID: pluginID}
	}
	metadata, err := validation.ValidateMetadata(installPath)
	if err != nil {
		return "", err
	}
	return metadata.Version, nil
}
