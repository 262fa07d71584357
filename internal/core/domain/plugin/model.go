package plugindomain

// Category represents where a plugin sits in the trust hierarchy
type Category string

const (
	CategoryOfficial  Category = "official"
	CategoryCommunity Category = "community"
)

// Valid reports whether the category is one of the known values
func (c Category) Valid() bool {
	return c == CategoryOfficial || c == CategoryCommunity
}

// RegistryEntry represents a single plugin's listing in the remote registry
type RegistryEntry struct {
	DisplayName         string   `json:"display_name"`
	Description         string   `json:"description"`
	Category            Category `json:"category"`
	Verified            bool     `json:"verified"`
	LatestVersion       string   `json:"latest_version"`
	Source              string   `json:"source"`
	Dependencies        []string `json:"dependencies"`
	RuntimeDependencies []string `json:"runtime_dependencies"`
	Keywords            []string `json:"keywords"`
	Homepage            string   `json:"homepage,omitempty"`
	Repository          string   `json:"repository,omitempty"`
}

// RegistryIndex represents the full registry document fetched from the
// registry URL. It is cached whole-document for the process lifetime.
type RegistryIndex struct {
	SchemaVersion string                   `json:"version"`
	LastUpdated   string                   `json:"last_updated"`
	Plugins       map[string]RegistryEntry `json:"plugins"`
}

// Metadata is the plugin.json manifest shipped inside every plugin's
// source tree. The metadata validator decodes the raw document loosely so
// that type mismatches can be reported per field; this struct is the
// validated view handed to the rest of the pipeline.
type Metadata struct {
	Name                string   `json:"name"`
	DisplayName         string   `json:"display_name"`
	Version             string   `json:"version"`
	Description         string   `json:"description"`
	Author              string   `json:"author"`
	License             string   `json:"license"`
	MinHostVersion      string   `json:"min_host_version"`
	EntryPoint          string   `json:"entry_point"`
	Category            Category `json:"category"`
	Homepage            string   `json:"homepage,omitempty"`
	Repository          string   `json:"repository,omitempty"`
	Dependencies        []string `json:"dependencies,omitempty"`
	RuntimeDependencies []string `json:"runtime_dependencies,omitempty"`
	Keywords            []string `json:"keywords,omitempty"`
	Verified            bool     `json:"verified,omitempty"`
	Features            []string `json:"features,omitempty"`
}

// RequiredFields lists the nine manifest fields every plugin must declare,
// in the order they are reported when missing.
func RequiredFields() []string {
	return []string{
		"name",
		"display_name",
		"version",
		"description",
		"author",
		"license",
		"min_host_version",
		"entry_point",
		"category",
	}
}

// InstalledPlugin describes a plugin directory found under the install
// root. Presence of plugin.json is the sole install marker.
type InstalledPlugin struct {
	ID      string
	Version string
	Path    string
}

// ManifestFileName is the on-disk manifest every plugin source tree carries.
const ManifestFileName = "plugin.json"

// SourceFileExt is the extension of plugin source files an entry point's
// module path resolves to.
const SourceFileExt = ".py"
