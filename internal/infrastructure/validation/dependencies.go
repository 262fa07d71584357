package validation

import (
	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

// MissingDependencies cross-references a raw dependencies declaration
// against the currently installed plugin ids and returns, in declaration
// order, the ids that are not installed. A missing dependency is data for
// the caller to act on, not an error: nothing is auto-installed here.
//
// declared is the manifest's dependencies value as decoded JSON (nil when
// the field is absent); anything but a list of plugin ids is a
// DependencyFieldTypeError.
func MissingDependencies(declared interface{}, installedIDs []string) ([]string, error) {
	var deps []string
	switch value := declared.(type) {
	case nil:
	case []string:
		deps = value
	case []interface{}:
		for _, item := range value {
			id, ok := item.(string)
			if !ok {
				return nil, &plugindomain.DependencyFieldTypeError{}
			}
			deps = append(deps, id)
		}
	default:
		return nil, &plugindomain.DependencyFieldTypeError{}
	}

	installed := make(map[string]struct{}, len(installedIDs))
	for _, id := range installedIDs {
		installed[id] = struct{}{}
	}

	missing := make([]string, 0)
	for _, dep := range deps {
		if _, ok := installed[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing, nil
}

// ValidateDependencies is the manifest-typed convenience wrapper over
// MissingDependencies.
func ValidateDependencies(metadata *plugindomain.Metadata, installedIDs []string) ([]string, error) {
	if metadata.Dependencies == nil {
		return MissingDependencies(nil, installedIDs)
	}
	return MissingDependencies(metadata.Dependencies, installedIDs)
}
