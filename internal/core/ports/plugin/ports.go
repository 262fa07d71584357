package pluginports

import (
	"context"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

// RegistryClient resolves plugins against the remote registry index
type RegistryClient interface {
	// FetchRegistry returns the registry index, serving the in-memory copy
	// unless it is empty or forceRefresh is set
	FetchRegistry(ctx context.Context, forceRefresh bool) (*plugindomain.RegistryIndex, error)

	// GetPluginEntry looks up a single plugin id in the index
	GetPluginEntry(ctx context.Context, pluginID string) (*plugindomain.RegistryEntry, error)
}

// ArchiveFetcher materializes a plugin's source tree on local disk
type ArchiveFetcher interface {
	// FetchPluginSource downloads and extracts the upstream snapshot and
	// returns the directory holding the requested plugin's subtree along
	// with a cleanup function for the temporary extraction area. Cleanup is
	// safe to call on every path, including after failures.
	FetchPluginSource(ctx context.Context, entry *plugindomain.RegistryEntry) (pluginDir string, cleanup func(), err error)
}

// InstallOptions tunes a single install operation
type InstallOptions struct {
	// Version pins the requested version; empty means whatever the
	// registry currently publishes
	Version string

	// Force replaces an existing install instead of failing
	Force bool
}

// InstallManager drives the plugin lifecycle against the local install root
type InstallManager interface {
	// Install resolves, fetches, validates, and copies a plugin into the
	// install root, returning the install path
	Install(ctx context.Context, pluginID string, opts InstallOptions) (string, error)

	// Uninstall removes an installed plugin's directory
	Uninstall(pluginID string) error

	// Update reinstalls a plugin over its current version
	Update(ctx context.Context, pluginID string) (string, error)

	// ListInstalled returns installed plugin ids in lexicographic order
	ListInstalled() ([]string, error)

	// InstalledVersion reports the version recorded in an installed
	// plugin's manifest
	InstalledVersion(pluginID string) (string, error)
}
