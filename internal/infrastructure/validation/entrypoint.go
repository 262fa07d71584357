package validation

import (
	"os"
	"path/filepath"
	"strings"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

// ValidateEntryPoint statically confirms that entryPoint ("module.path:ClassName")
// resolves to a real source file under pluginDir declaring the named class.
// The check is a plain text scan over the source, never an import or eval,
// so validation cannot execute plugin code. The token may in principle match
// inside a comment or string; that false-positive risk is accepted in
// exchange for never running untrusted code.
func ValidateEntryPoint(pluginDir, entryPoint string) error {
	parts := strings.Split(entryPoint, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return &plugindomain.EntryPointFormatError{EntryPoint: entryPoint}
	}
	module, class := parts[0], parts[1]

	relPath := filepath.FromSlash(strings.ReplaceAll(module, ".", "/")) + plugindomain.SourceFileExt
	sourcePath := filepath.Join(pluginDir, relPath)

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &plugindomain.EntryPointModuleNotFoundError{Module: module, Path: relPath}
		}
		return err
	}

	if !strings.Contains(string(source), "class "+class) {
		return &plugindomain.EntryPointClassNotFoundError{Class: class, Path: relPath}
	}

	return nil
}
