package loader

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultRegistryURL is the primary FHIR package registry.
	DefaultRegistryURL = "https://packages.fhir.org"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// VersionLatest represents the "latest" version tag.
	VersionLatest = "latest"

	maxFileSize = 100 * 1024 * 1024
)

// Client downloads packages from a FHIR package registry into the local
// package cache.
type Client struct {
	httpClient  *http.Client
	registryURL string
	cacheDir    string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithRegistryURL sets a custom registry URL.
func WithRegistryURL(url string) ClientOption {
	return func(c *Client) {
		c.registryURL = strings.TrimSuffix(url, "/")
	}
}

// WithCacheDir sets a custom cache directory.
func WithCacheDir(dir string) ClientOption {
	return func(c *Client) {
		if dir != "" {
			c.cacheDir = dir
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new registry client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		registryURL: DefaultRegistryURL,
		cacheDir:    DefaultPackagePath(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheDir returns the cache directory path.
func (c *Client) CacheDir() string {
	return c.cacheDir
}

type registryListing struct {
	DistTags map[string]string `json:"dist-tags"`
	Versions map[string]struct {
		Dist struct {
			Tarball string `json:"tarball"`
		} `json:"dist"`
		URL string `json:"url"`
	} `json:"versions"`
}

// GetPackage makes sure name#version is in the cache, downloading it if
// needed, and returns its directory. An empty version means latest.
func (c *Client) GetPackage(ctx context.Context, name, version string) (string, error) {
	if version != "" && version != VersionLatest {
		dir := c.packagePath(name, version)
		if isPackageCached(dir) {
			return dir, nil
		}
	}

	listing, err := c.listing(ctx, name)
	if err != nil {
		return "", err
	}
	if version == "" || version == VersionLatest {
		latest, ok := listing.DistTags[VersionLatest]
		if !ok {
			return "", fmt.Errorf("no latest version found for package %s", name)
		}
		version = latest
	}

	dir := c.packagePath(name, version)
	if isPackageCached(dir) {
		return dir, nil
	}

	info, ok := listing.Versions[version]
	if !ok {
		return "", fmt.Errorf("version %s not found for package %s", version, name)
	}
	tarball := info.Dist.Tarball
	if tarball == "" {
		tarball = info.URL
	}
	if tarball == "" {
		return "", fmt.Errorf("no download URL found for %s#%s", name, version)
	}

	if err := c.download(ctx, tarball, dir); err != nil {
		return "", fmt.Errorf("failed to download %s#%s: %w", name, version, err)
	}
	return dir, nil
}

func (c *Client) listing(ctx context.Context, name string) (*registryListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.registryURL+"/"+name, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("package not found: %s (status %d)", name, resp.StatusCode)
	}

	var listing registryListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode package info: %w", err)
	}
	return &listing, nil
}

func (c *Client) download(ctx context.Context, url, dir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := extractTarGz(resp.Body, dir); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("failed to extract package: %w", err)
	}
	return nil
}

func (c *Client) packagePath(name, version string) string {
	safeName := strings.ReplaceAll(name, "/", "-")
	return filepath.Join(c.cacheDir, fmt.Sprintf("%s#%s", safeName, version))
}

func isPackageCached(dir string) bool {
	for _, p := range []string{filepath.Join(dir, "package", "package.json"), filepath.Join(dir, "package.json")} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func extractTarGz(r io.Reader, destDir string) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar: %w", err)
		}

		target := filepath.Join(destDir, header.Name) //nolint:gosec // G305: checked against root below
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("invalid tar path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return err
			}
		}
	}
}

func writeFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, io.LimitReader(r, maxFileSize)); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
