package validation

import (
	"encoding/json"
	"os"
	"path/filepath"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

// stringFields are manifest fields that must decode as JSON strings when
// present. Required fields are also checked for presence first.
var stringFields = []string{
	"name",
	"display_name",
	"version",
	"description",
	"author",
	"license",
	"min_host_version",
	"entry_point",
	"category",
	"homepage",
	"repository",
}

// listFields are manifest fields that must decode as JSON arrays of strings
// when present.
var listFields = []string{
	"dependencies",
	"runtime_dependencies",
	"keywords",
	"features",
}

// ValidateMetadata loads and validates plugin.json from pluginDir, checking
// required-field presence, per-field types, and the category value. It
// returns the validated manifest; the raw document never reaches the rest
// of the pipeline unchecked.
func ValidateMetadata(pluginDir string) (*plugindomain.Metadata, error) {
	manifestPath := filepath.Join(pluginDir, plugindomain.ManifestFileName)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &plugindomain.MissingMetadataError{Dir: pluginDir}
		}
		return nil, err
	}

	// Decode loosely first so each schema violation can be reported
	// against the exact field.
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &plugindomain.MetadataParseError{Path: manifestPath, Err: err}
	}

	var missing []string
	for _, field := range plugindomain.RequiredFields() {
		if _, ok := raw[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &plugindomain.MissingFieldsError{Fields: missing}
	}

	for _, field := range stringFields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		if _, ok := value.(string); !ok {
			return nil, &plugindomain.FieldTypeError{Field: field, Expected: "string"}
		}
	}

	for _, field := range listFields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		items, ok := value.([]interface{})
		if !ok {
			return nil, &plugindomain.FieldTypeError{Field: field, Expected: "list of strings"}
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return nil, &plugindomain.FieldTypeError{Field: field, Expected: "list of strings"}
			}
		}
	}

	if value, ok := raw["verified"]; ok {
		if _, ok := value.(bool); !ok {
			return nil, &plugindomain.FieldTypeError{Field: "verified", Expected: "boolean"}
		}
	}

	category := raw["category"].(string)
	if !plugindomain.Category(category).Valid() {
		return nil, &plugindomain.InvalidCategoryError{Category: category}
	}

	// Types are verified above, so the strict decode cannot fail on shape.
	var metadata plugindomain.Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, &plugindomain.MetadataParseError{Path: manifestPath, Err: err}
	}

	return &metadata, nil
}
