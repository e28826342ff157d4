// Package loader reads FHIR NPM packages from the local package cache, from
// .tgz archives or from the package registry, and loads a set of dependency
// packages concurrently.
package loader

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPackagePath returns the default FHIR package cache path.
func DefaultPackagePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fhir", "packages")
}

// PackageRef represents a reference to a FHIR package.
type PackageRef struct {
	Name    string
	Version string
}

// String returns the package spec in "name#version" format.
func (p PackageRef) String() string {
	return fmt.Sprintf("%s#%s", p.Name, p.Version)
}

// ParsePackageRef parses "name#version", "name@version" or a bare name.
func ParsePackageRef(spec string) PackageRef {
	spec = strings.TrimSpace(spec)
	for _, sep := range []string{"#", "@"} {
		if name, version, ok := strings.Cut(spec, sep); ok {
			return PackageRef{Name: name, Version: version}
		}
	}
	return PackageRef{Name: spec}
}

// Resource is one JSON file of a package.
type Resource struct {
	File string
	Data json.RawMessage
}

// Package represents a loaded FHIR package. Resources are ordered by file
// name so that lookups over them are deterministic.
type Package struct {
	Name         string
	Version      string
	Path         string
	FHIRVersion  string
	Dependencies map[string]string
	Resources    []Resource
}

// Ref returns the package's reference.
func (p *Package) Ref() PackageRef {
	return PackageRef{Name: p.Name, Version: p.Version}
}

// PackageManifest represents the package.json of a FHIR NPM package.
type PackageManifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	FHIRVersion  string            `json:"fhirVersion,omitempty"`
	FHIRVersions []string          `json:"fhirVersions,omitempty"`
	Canonical    string            `json:"canonical,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// fhirVersion returns the first declared FHIR version.
func (m *PackageManifest) fhirVersion() string {
	if m.FHIRVersion != "" {
		return m.FHIRVersion
	}
	if len(m.FHIRVersions) > 0 {
		return m.FHIRVersions[0]
	}
	return ""
}

// Loader loads FHIR packages from the NPM cache.
type Loader struct {
	basePath string
	client   *Client
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClient enables downloading packages missing from the cache.
func WithClient(c *Client) LoaderOption {
	return func(l *Loader) {
		l.client = c
	}
}

// NewLoader creates a new Loader with the given base path.
func NewLoader(basePath string, opts ...LoaderOption) *Loader {
	if basePath == "" {
		basePath = DefaultPackagePath()
	}
	l := &Loader{basePath: basePath}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BasePath returns the base path for packages.
func (l *Loader) BasePath() string {
	return l.basePath
}

// PackageDir returns the cache directory of a package.
func (l *Loader) PackageDir(name, version string) string {
	return filepath.Join(l.basePath, fmt.Sprintf("%s#%s", name, version))
}

// LoadPackage loads a specific package by name and version from the cache.
func (l *Loader) LoadPackage(name, version string) (*Package, error) {
	return l.LoadDir(l.PackageDir(name, version))
}

// LoadDir loads an extracted package directory. Both "<dir>/package" and a
// flat layout are accepted.
func (l *Loader) LoadDir(pkgDir string) (*Package, error) {
	if _, err := os.Stat(pkgDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("package not found at %s", pkgDir)
	}

	contentDir := pkgDir
	if info, err := os.Stat(filepath.Join(pkgDir, "package")); err == nil && info.IsDir() {
		contentDir = filepath.Join(pkgDir, "package")
	}

	manifestData, err := os.ReadFile(filepath.Join(contentDir, "package.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read package manifest: %w", err)
	}

	entries, err := os.ReadDir(contentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}

	var resources []Resource
	for _, entry := range entries {
		if entry.IsDir() || !isResourceFile(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(contentDir, entry.Name()))
		if err != nil {
			continue
		}
		resources = append(resources, Resource{File: entry.Name(), Data: data})
	}

	return newPackage(manifestData, resources, pkgDir)
}

// LoadFromTgz loads a FHIR package from a local .tgz file.
func (l *Loader) LoadFromTgz(tgzPath string) (*Package, error) {
	file, err := os.Open(tgzPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open tgz file: %w", err)
	}
	defer file.Close()

	return LoadFromTgzReader(file, tgzPath)
}

// LoadFromTgzReader loads a package from a gzipped tar stream.
func LoadFromTgzReader(reader io.Reader, source string) (*Package, error) {
	gzReader, err := gzip.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)

	var manifestData []byte
	var resources []Resource
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag == tar.TypeDir {
			continue
		}

		name := strings.TrimPrefix(header.Name, "package/")
		if strings.Contains(name, "/") {
			continue
		}
		if name != "package.json" && !isResourceFile(name) {
			continue
		}

		data, err := io.ReadAll(tarReader)
		if err != nil {
			continue
		}
		if name == "package.json" {
			manifestData = data
			continue
		}
		resources = append(resources, Resource{File: name, Data: data})
	}

	if manifestData == nil {
		return nil, fmt.Errorf("package.json not found in %s", source)
	}
	return newPackage(manifestData, resources, source)
}

func newPackage(manifestData []byte, resources []Resource, path string) (*Package, error) {
	var manifest PackageManifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse package manifest: %w", err)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].File < resources[j].File })

	return &Package{
		Name:         manifest.Name,
		Version:      manifest.Version,
		Path:         path,
		FHIRVersion:  manifest.fhirVersion(),
		Dependencies: manifest.Dependencies,
		Resources:    resources,
	}, nil
}

func isResourceFile(name string) bool {
	return strings.HasSuffix(name, ".json") && name != "package.json" && name != ".index.json"
}

// ListPackages returns all available packages in the cache.
func (l *Loader) ListPackages() ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, err
	}

	var packages []string
	for _, entry := range entries {
		if entry.IsDir() && strings.Contains(entry.Name(), "#") {
			packages = append(packages, entry.Name())
		}
	}
	return packages, nil
}
