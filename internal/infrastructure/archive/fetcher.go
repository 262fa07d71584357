package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

const defaultTimeout = 30 * time.Second

// Fetcher downloads the upstream plugin repository as a whole-repository
// ZIP snapshot and extracts it into a per-operation temporary directory.
// Downloading the entire repository for a single plugin is a known,
// accepted inefficiency; a narrower per-plugin fetch can replace it behind
// the same contract without changing callers.
type Fetcher struct {
	archiveURL string
	client     *http.Client
	logger     hclog.Logger
	tempBase   string
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLogger sets the logger
func WithLogger(logger hclog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithTimeout sets the download timeout
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = timeout
	}
}

// WithTempBase overrides the base directory for temporary extraction areas
func WithTempBase(dir string) Option {
	return func(f *Fetcher) {
		f.tempBase = dir
	}
}

// NewFetcher creates a fetcher for the given snapshot archive URL
func NewFetcher(archiveURL string, options ...Option) *Fetcher {
	f := &Fetcher{
		archiveURL: archiveURL,
		client:     &http.Client{Timeout: defaultTimeout},
		logger:     hclog.NewNullLogger(),
		tempBase:   os.TempDir(),
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// FetchPluginSource downloads the snapshot, extracts it fully, and locates
// entry.Source under the archive root. The returned cleanup removes the
// whole temporary area and is safe to call on both success and failure
// paths. Temp directory names carry a random suffix so concurrent
// operations cannot collide.
func (f *Fetcher) FetchPluginSource(ctx context.Context, entry *plugindomain.RegistryEntry) (string, func(), error) {
	tempDir := filepath.Join(f.tempBase, fmt.Sprintf("devflow-plugin-%s", uuid.NewString()))
	cleanup := func() {
		if err := os.RemoveAll(tempDir); err != nil {
			f.logger.Warn("failed to remove temp directory", "dir", tempDir, "error", err)
		}
	}

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", cleanup, err
	}

	data, err := f.download(ctx)
	if err != nil {
		return "", cleanup, err
	}

	root, err := f.extract(data, tempDir)
	if err != nil {
		return "", cleanup, err
	}

	pluginDir := filepath.Join(tempDir, root, filepath.FromSlash(entry.Source))
	info, err := os.Stat(pluginDir)
	if err != nil || !info.IsDir() {
		return "", cleanup, &plugindomain.ArchiveLayoutError{Source: entry.Source}
	}

	f.logger.Debug("plugin source extracted", "source", entry.Source, "dir", pluginDir)
	return pluginDir, cleanup, nil
}

func (f *Fetcher) download(ctx context.Context) ([]byte, error) {
	f.logger.Debug("downloading plugin archive", "url", f.archiveURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.archiveURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "devflow-cli")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &plugindomain.ArchiveDownloadError{URL: f.archiveURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &plugindomain.ArchiveDownloadError{URL: f.archiveURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &plugindomain.ArchiveDownloadError{URL: f.archiveURL, Err: err}
	}

	f.logger.Debug("downloaded plugin archive", "bytes", len(data))
	return data, nil
}

// extract unpacks the ZIP into targetDir and returns the archive's root
// directory name (GitHub snapshots are rooted at "<repo>-<branch>/").
func (f *Fetcher) extract(data []byte, targetDir string) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &plugindomain.ArchiveFormatError{Err: err}
	}

	root := ""
	for _, file := range reader.File {
		name := filepath.FromSlash(file.Name)
		targetPath := filepath.Join(targetDir, name)

		// Prevent path traversal out of the extraction area.
		if !strings.HasPrefix(filepath.Clean(targetPath), filepath.Clean(targetDir)+string(os.PathSeparator)) {
			return "", &plugindomain.ArchiveFormatError{Err: fmt.Errorf("unsafe zip path: %s", file.Name)}
		}

		if root == "" {
			root = topLevelDir(file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return "", err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
			return "", err
		}
		if err := extractFile(file, targetPath); err != nil {
			return "", err
		}
	}

	return root, nil
}

func extractFile(file *zip.File, targetPath string) error {
	src, err := file.Open()
	if err != nil {
		return &plugindomain.ArchiveFormatError{Err: err}
	}
	defer src.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		// Archives written without explicit modes extract readable.
		mode = 0644
	}
	dst, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func topLevelDir(name string) string {
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return ""
}
