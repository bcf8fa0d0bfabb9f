// Package installer fetches the engine binary bundle and unpacks it
// into the versioned install tree the supervisor resolves from.
package installer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/tabnine/internal/logging"
	"github.com/dshills/tabnine/internal/process"
)

// DefaultBaseURL is the engine's bundle distribution endpoint.
const DefaultBaseURL = "https://update.tabnine.com/bundles"

// Config configures an Installer.
type Config struct {
	// BaseURL overrides the distribution endpoint (tests, mirrors).
	BaseURL string

	// Client is the HTTP client used for downloads.
	Client *http.Client

	// Logger receives installer trace output.
	Logger *logging.Logger
}

// Installer downloads and unpacks engine bundles.
type Installer struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

// New creates an installer.
func New(cfg Config) *Installer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 5 * time.Minute}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Null
	}
	return &Installer{
		baseURL: cfg.BaseURL,
		client:  cfg.Client,
		log:     log.WithComponent("installer"),
	}
}

// LatestVersion fetches the newest published engine version string.
func (i *Installer) LatestVersion(ctx context.Context) (string, error) {
	body, err := i.get(ctx, i.baseURL+"/version")
	if err != nil {
		return "", fmt.Errorf("fetch engine version: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 256))
	if err != nil {
		return "", fmt.Errorf("read engine version: %w", err)
	}

	version := strings.TrimSpace(string(data))
	if _, ok := process.ParseVersion(version); !ok {
		return "", fmt.Errorf("unexpected engine version %q", version)
	}
	return version, nil
}

// Install downloads the newest bundle for the current target and
// unpacks it under root as <root>/<version>/<target>/. Returns the
// installed version. Failures name the manual fallback so the user can
// finish the install by hand.
func (i *Installer) Install(ctx context.Context, root string) (string, error) {
	version, err := i.LatestVersion(ctx)
	if err != nil {
		return "", err
	}
	return version, i.InstallVersion(ctx, root, version)
}

// InstallVersion downloads and unpacks a specific bundle version.
func (i *Installer) InstallVersion(ctx context.Context, root, version string) error {
	target := process.TargetTriple()
	bundleURL := fmt.Sprintf("%s/%s/%s/TabNine.zip", i.baseURL, version, target)
	dest := filepath.Join(root, version, target)

	i.log.Info("downloading %s", bundleURL)

	body, err := i.get(ctx, bundleURL)
	if err != nil {
		return fmt.Errorf("download engine bundle: %w (download %s manually and extract it into %s)", err, bundleURL, dest)
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "tabnine-bundle-*.zip")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, body); err != nil {
		return fmt.Errorf("save engine bundle: %w (download %s manually and extract it into %s)", err, bundleURL, dest)
	}

	if err := extractZip(tmp.Name(), dest); err != nil {
		return fmt.Errorf("extract engine bundle: %w (extract %s manually into %s)", err, bundleURL, dest)
	}

	i.log.Info("installed engine %s into %s", version, dest)
	return nil
}

// get issues a GET and rejects non-200 responses.
func (i *Installer) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

// extractZip unpacks archive into dest. Every extracted file is marked
// executable since the bundle carries the engine binary and its
// helpers.
func extractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	for _, f := range r.File {
		path, err := sanitizePath(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}

		if err := extractFile(f, path); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes one archive member to path.
func extractFile(f *zip.File, path string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s in bundle: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// sanitizePath rejects archive members that would escape dest.
func sanitizePath(dest, name string) (string, error) {
	path := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("bundle member %q escapes install directory", name)
	}
	return path, nil
}
