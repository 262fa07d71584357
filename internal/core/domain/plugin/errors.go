package plugindomain

import (
	"fmt"
	"strings"
)

// Registry errors

// RegistryUnavailableError indicates the registry could not be reached at
// the transport level (DNS, connect, timeout).
type RegistryUnavailableError struct {
	URL string
	Err error
}

func (e *RegistryUnavailableError) Error() string {
	return fmt.Sprintf("plugin registry unavailable at %s: %v", e.URL, e.Err)
}

func (e *RegistryUnavailableError) Unwrap() error { return e.Err }

// RegistryFetchError indicates the registry responded with a non-200 status.
type RegistryFetchError struct {
	URL        string
	StatusCode int
}

func (e *RegistryFetchError) Error() string {
	return fmt.Sprintf("plugin registry fetch failed: %s returned status %d", e.URL, e.StatusCode)
}

// RegistryFormatError indicates the registry body was not a valid index
// document (bad JSON or missing the plugins key).
type RegistryFormatError struct {
	Reason string
	Err    error
}

func (e *RegistryFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid plugin registry document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid plugin registry document: %s", e.Reason)
}

func (e *RegistryFormatError) Unwrap() error { return e.Err }

// PluginNotFoundError indicates the requested id is absent from the
// registry index. KnownIDs carries every id the index does contain.
type PluginNotFoundError struct {
	ID       string
	KnownIDs []string
}

func (e *PluginNotFoundError) Error() string {
	if len(e.KnownIDs) == 0 {
		return fmt.Sprintf("plugin %q not found in registry (registry is empty)", e.ID)
	}
	return fmt.Sprintf("plugin %q not found in registry; known plugins: %s", e.ID, strings.Join(e.KnownIDs, ", "))
}

// Archive errors

// ArchiveDownloadError indicates the source archive could not be
// downloaded (transport failure or non-200 status).
type ArchiveDownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ArchiveDownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to download plugin archive from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to download plugin archive: %s returned status %d", e.URL, e.StatusCode)
}

func (e *ArchiveDownloadError) Unwrap() error { return e.Err }

// ArchiveFormatError indicates the downloaded archive was not a readable ZIP.
type ArchiveFormatError struct {
	Err error
}

func (e *ArchiveFormatError) Error() string {
	return fmt.Sprintf("plugin archive is not a valid zip: %v", e.Err)
}

func (e *ArchiveFormatError) Unwrap() error { return e.Err }

// ArchiveLayoutError indicates the archive extracted fine but the expected
// plugin subtree was absent, e.g. a stale registry entry pointing at a
// renamed path.
type ArchiveLayoutError struct {
	Source string
}

func (e *ArchiveLayoutError) Error() string {
	return fmt.Sprintf("plugin source %q not found in extracted archive", e.Source)
}

// Metadata errors

// MissingMetadataError indicates the plugin directory has no plugin.json.
type MissingMetadataError struct {
	Dir string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("no %s found in %s", ManifestFileName, e.Dir)
}

// MetadataParseError indicates plugin.json exists but is not valid JSON.
type MetadataParseError struct {
	Path string
	Err  error
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *MetadataParseError) Unwrap() error { return e.Err }

// MissingFieldsError names the exact set of required manifest fields that
// are absent, in declaration order.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("plugin manifest is missing required fields: %s", strings.Join(e.Fields, ", "))
}

// FieldTypeError names a manifest field whose JSON type does not match the
// schema.
type FieldTypeError struct {
	Field    string
	Expected string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("plugin manifest field %q must be a %s", e.Field, e.Expected)
}

// InvalidCategoryError indicates a category outside {official, community}.
type InvalidCategoryError struct {
	Category string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("plugin category must be %q or %q, got %q", CategoryOfficial, CategoryCommunity, e.Category)
}

// Entry point errors

// EntryPointFormatError indicates an entry point not of the form
// "module.path:ClassName".
type EntryPointFormatError struct {
	EntryPoint string
}

func (e *EntryPointFormatError) Error() string {
	return fmt.Sprintf("entry point %q must be of the form module.path:ClassName", e.EntryPoint)
}

// EntryPointModuleNotFoundError indicates the module path does not resolve
// to a source file inside the plugin directory.
type EntryPointModuleNotFoundError struct {
	Module string
	Path   string
}

func (e *EntryPointModuleNotFoundError) Error() string {
	return fmt.Sprintf("entry point module %q not found (expected source file %s)", e.Module, e.Path)
}

// EntryPointClassNotFoundError indicates the source file exists but does
// not declare the named class.
type EntryPointClassNotFoundError struct {
	Class string
	Path  string
}

func (e *EntryPointClassNotFoundError) Error() string {
	return fmt.Sprintf("class %q not declared in %s", e.Class, e.Path)
}

// Compatibility and dependency errors

// IncompatibleVersionError indicates the running host is older than the
// plugin's declared minimum.
type IncompatibleVersionError struct {
	MinHostVersion string
	HostVersion    string
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("plugin requires host version %s or newer, running %s", e.MinHostVersion, e.HostVersion)
}

// DependencyFieldTypeError indicates a dependencies declaration that is
// not a list of plugin ids.
type DependencyFieldTypeError struct{}

func (e *DependencyFieldTypeError) Error() string {
	return "plugin manifest field \"dependencies\" must be a list of plugin ids"
}

// Lifecycle errors

// AlreadyInstalledError indicates an install without force over an
// existing plugin directory.
type AlreadyInstalledError struct {
	ID   string
	Path string
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("plugin %q is already installed at %s (use force to replace)", e.ID, e.Path)
}

// NotInstalledError indicates an uninstall of an id with no directory
// under the install root.
type NotInstalledError struct {
	ID string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("plugin %q is not installed", e.ID)
}

// InstallError wraps any failure raised during an install, giving callers
// a single error surface regardless of which phase failed. The original
// cause stays reachable through errors.As / errors.Is.
type InstallError struct {
	ID  string
	Err error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("failed to install plugin %q: %v", e.ID, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }
