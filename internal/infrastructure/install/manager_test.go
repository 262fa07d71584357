package install

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
	pluginports "github.com/devflow-sh/devflow/internal/core/ports/plugin"
	"github.com/devflow-sh/devflow/internal/infrastructure/archive"
	"github.com/devflow-sh/devflow/internal/infrastructure/registry"
)

const gitManifest = `{
	"name": "git",
	"display_name": "Git Workflow",
	"version": "%s",
	"description": "Git workflow automation",
	"author": "devflow",
	"license": "MIT",
	"min_host_version": "%s",
	"entry_point": "p_git.plugin:GitPlugin",
	"category": "official",
	"dependencies": %s
}`

// fixture wires a full pipeline against in-process registry and archive
// servers.
type fixture struct {
	manager     *Manager
	tempBase    string
	root        string
	archiveHits *atomic.Int32
}

func newFixture(t *testing.T, hostVersion string, archiveFiles map[string]string) *fixture {
	t.Helper()

	registryBody := `{
		"version": "1",
		"last_updated": "2026-01-15T00:00:00Z",
		"plugins": {
			"git": {
				"display_name": "Git Workflow",
				"description": "Git workflow automation",
				"category": "official",
				"verified": true,
				"latest_version": "1.2.0",
				"source": "plugins/p-git",
				"dependencies": [],
				"runtime_dependencies": [],
				"keywords": ["git"]
			}
		}
	}`

	registryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, registryBody)
	}))
	t.Cleanup(registryServer.Close)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range archiveFiles {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	archiveHits := new(atomic.Int32)
	archiveServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		archiveHits.Add(1)
		w.Write(buf.Bytes())
	}))
	t.Cleanup(archiveServer.Close)

	tempBase := t.TempDir()
	root := t.TempDir()
	manager := NewManager(
		registry.NewClient(registryServer.URL),
		archive.NewFetcher(archiveServer.URL, archive.WithTempBase(tempBase)),
		root,
		hostVersion,
		nil,
	)
	return &fixture{manager: manager, tempBase: tempBase, root: root, archiveHits: archiveHits}
}

func validArchive(version, minHost string) map[string]string {
	return map[string]string{
		"devflow-plugins-main/plugins/p-git/plugin.json": fmt.Sprintf(gitManifest, version, minHost, "[]"),
		"devflow-plugins-main/plugins/p-git/p_git/plugin.py": "class GitPlugin:\n    pass\n",
	}
}

func (f *fixture) assertNoLeakedTempDirs(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempBase)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp directories leaked")
}

func TestInstall(t *testing.T) {
	t.Run("EndToEnd", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))

		path, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{})
		require.NoError(t, err)
		assert.Equal(t, "git", filepath.Base(path))
		assert.FileExists(t, filepath.Join(path, "plugin.json"))
		assert.FileExists(t, filepath.Join(path, "p_git", "plugin.py"))

		installed, err := f.manager.ListInstalled()
		require.NoError(t, err)
		assert.Contains(t, installed, "git")

		version, err := f.manager.InstalledVersion("git")
		require.NoError(t, err)
		assert.Equal(t, "1.2.0", version)

		f.assertNoLeakedTempDirs(t)
	})

	t.Run("UnknownPlugin", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))

		_, err := f.manager.Install(context.Background(), "nope", pluginports.InstallOptions{})
		var installErr *plugindomain.InstallError
		require.ErrorAs(t, err, &installErr)
		var notFoundErr *plugindomain.PluginNotFoundError
		assert.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("AlreadyInstalledLeavesExistingUntouched", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))
		ctx := context.Background()

		path, err := f.manager.Install(ctx, "git", pluginports.InstallOptions{})
		require.NoError(t, err)
		marker := filepath.Join(path, "local-state.txt")
		require.NoError(t, os.WriteFile(marker, []byte("keep me"), 0644))

		_, err = f.manager.Install(ctx, "git", pluginports.InstallOptions{})
		var alreadyErr *plugindomain.AlreadyInstalledError
		require.ErrorAs(t, err, &alreadyErr)

		data, err := os.ReadFile(marker)
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(data))
	})

	t.Run("UnstatableInstallPathFailsBeforeFetch", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))

		// A regular file on the install path makes stat fail with an
		// error other than not-exist; that must abort the install, not
		// pass for "not installed".
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))
		f.manager.installRoot = filepath.Join(blocker, "plugins")

		_, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{})
		var installErr *plugindomain.InstallError
		require.ErrorAs(t, err, &installErr)
		assert.ErrorContains(t, err, "failed to check install path")
		assert.Zero(t, f.archiveHits.Load(), "archive fetched despite unusable install path")
	})

	t.Run("ForceFullyReplacesPriorInstall", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))
		ctx := context.Background()

		path, err := f.manager.Install(ctx, "git", pluginports.InstallOptions{})
		require.NoError(t, err)

		// A file present only in the old install must be gone afterward.
		stale := filepath.Join(path, "stale.py")
		require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

		newPath, err := f.manager.Install(ctx, "git", pluginports.InstallOptions{Force: true})
		require.NoError(t, err)
		assert.Equal(t, path, newPath)
		assert.NoFileExists(t, stale)
		assert.FileExists(t, filepath.Join(newPath, "plugin.json"))
	})

	t.Run("VersionPinMismatch", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))

		_, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{Version: "9.9.9"})
		var installErr *plugindomain.InstallError
		require.ErrorAs(t, err, &installErr)
		assert.Contains(t, err.Error(), "9.9.9")
	})

	t.Run("VersionPinMatchingRegistry", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))

		_, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{Version: "1.2.0"})
		assert.NoError(t, err)
	})
}

func TestInstallValidationGates(t *testing.T) {
	t.Run("MissingClassNeverReachesInstallRoot", func(t *testing.T) {
		files := validArchive("1.2.0", "1.0.0")
		files["devflow-plugins-main/plugins/p-git/p_git/plugin.py"] = "class SomethingElse:\n    pass\n"
		f := newFixture(t, "1.2.0", files)

		_, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{})
		var installErr *plugindomain.InstallError
		require.ErrorAs(t, err, &installErr)
		var classErr *plugindomain.EntryPointClassNotFoundError
		assert.ErrorAs(t, err, &classErr)

		installed, err := f.manager.ListInstalled()
		require.NoError(t, err)
		assert.Empty(t, installed)
		f.assertNoLeakedTempDirs(t)
	})

	t.Run("IncompatibleHostVersion", func(t *testing.T) {
		f := newFixture(t, "0.9.9", validArchive("1.2.0", "1.0.0"))

		_, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{})
		var versionErr *plugindomain.IncompatibleVersionError
		require.ErrorAs(t, err, &versionErr)

		installed, err := f.manager.ListInstalled()
		require.NoError(t, err)
		assert.Empty(t, installed)
		f.assertNoLeakedTempDirs(t)
	})

	t.Run("MissingManifest", func(t *testing.T) {
		files := map[string]string{
			"devflow-plugins-main/plugins/p-git/p_git/plugin.py": "class GitPlugin:\n    pass\n",
		}
		f := newFixture(t, "1.2.0", files)

		_, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{})
		var metadataErr *plugindomain.MissingMetadataError
		assert.ErrorAs(t, err, &metadataErr)
		f.assertNoLeakedTempDirs(t)
	})

	t.Run("MissingDependenciesAreNotFatal", func(t *testing.T) {
		files := map[string]string{
			"devflow-plugins-main/plugins/p-git/plugin.json": fmt.Sprintf(gitManifest, "1.2.0", "1.0.0", `["jira"]`),
			"devflow-plugins-main/plugins/p-git/p_git/plugin.py": "class GitPlugin:\n    pass\n",
		}
		f := newFixture(t, "1.2.0", files)

		_, err := f.manager.Install(context.Background(), "git", pluginports.InstallOptions{})
		assert.NoError(t, err)
	})
}

func TestUninstall(t *testing.T) {
	t.Run("NotInstalled", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))

		err := f.manager.Uninstall("git")
		var notInstalledErr *plugindomain.NotInstalledError
		assert.ErrorAs(t, err, &notInstalledErr)
	})

	t.Run("RemovesDirectory", func(t *testing.T) {
		f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))
		ctx := context.Background()

		path, err := f.manager.Install(ctx, "git", pluginports.InstallOptions{})
		require.NoError(t, err)

		require.NoError(t, f.manager.Uninstall("git"))
		assert.NoDirExists(t, path)

		installed, err := f.manager.ListInstalled()
		require.NoError(t, err)
		assert.NotContains(t, installed, "git")
	})
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))
	ctx := context.Background()

	_, err := f.manager.Install(ctx, "git", pluginports.InstallOptions{})
	require.NoError(t, err)

	path, err := f.manager.Update(ctx, "git")
	require.NoError(t, err)
	assert.Equal(t, "git", filepath.Base(path))
}

func TestListInstalled(t *testing.T) {
	t.Run("EmptyRootMissing", func(t *testing.T) {
		manager := NewManager(nil, nil, filepath.Join(t.TempDir(), "nope"), "1.0.0", nil)

		ids, err := manager.ListInstalled()
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("OnlyDirsWithManifestLexicographic", func(t *testing.T) {
		root := t.TempDir()
		for _, id := range []string{"zeta", "alpha", "beta"} {
			dir := filepath.Join(root, id)
			require.NoError(t, os.MkdirAll(dir, 0755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, plugindomain.ManifestFileName), []byte("{}"), 0644))
		}
		// Directory without a manifest is not an installed plugin.
		require.NoError(t, os.MkdirAll(filepath.Join(root, "scratch"), 0755))
		// Stray file is ignored.
		require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

		manager := NewManager(nil, nil, root, "1.0.0", nil)
		ids, err := manager.ListInstalled()
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta", "zeta"}, ids)
	})
}

func TestInstalledVersion(t *testing.T) {
	f := newFixture(t, "1.2.0", validArchive("1.2.0", "1.0.0"))

	_, err := f.manager.InstalledVersion("git")
	var notInstalledErr *plugindomain.NotInstalledError
	assert.ErrorAs(t, err, &notInstalledErr)

	_, err = f.manager.Install(context.Background(), "git", pluginports.InstallOptions{})
	require.NoError(t, err)

	version, err := f.manager.InstalledVersion("git")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", version)
}
