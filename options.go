package gofsh

// Option configures a conversion run.
type Option func(*Options)

// Options holds all configuration for a conversion run.
type Options struct {
	// FHIRVersion selects the core package used when no IG declares one.
	FHIRVersion FHIRVersion

	// Dependencies are package references ("name#version" or "name@version")
	// whose definitions are available to the resolver.
	Dependencies []string

	// Canonical overrides the canonical url of the generated configuration.
	Canonical string

	// GenerateAliases mints $alias tokens for urls that do not resolve to a name.
	GenerateAliases bool

	// KeepGeneratedDates disables removal of tooling-generated ^date rules.
	KeepGeneratedDates bool

	// Indent enables indented rule rendering for contains rules.
	Indent bool

	// PackageCachePath is the FHIR package cache (defaults to ~/.fhir/packages).
	PackageCachePath string

	// Download allows fetching missing dependency packages from the registry.
	Download bool

	// StructureDefCacheSize bounds the parsed StructureDefinition cache.
	StructureDefCacheSize int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		FHIRVersion:           R4,
		GenerateAliases:       true,
		KeepGeneratedDates:    false,
		Indent:                false,
		Download:              false,
		StructureDefCacheSize: 500,
	}
}

// Apply returns DefaultOptions with opts applied in order.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFHIRVersion sets the FHIR version.
func WithFHIRVersion(v FHIRVersion) Option {
	return func(o *Options) {
		if v.IsValid() {
			o.FHIRVersion = v
		}
	}
}

// WithDependencies appends dependency package references.
func WithDependencies(deps ...string) Option {
	return func(o *Options) {
		for _, d := range deps {
			if d != "" {
				o.Dependencies = append(o.Dependencies, d)
			}
		}
	}
}

// WithCanonical sets the canonical url used for the configuration.
func WithCanonical(canonical string) Option {
	return func(o *Options) {
		o.Canonical = canonical
	}
}

// WithAliasGeneration enables or disables alias minting.
func WithAliasGeneration(enable bool) Option {
	return func(o *Options) {
		o.GenerateAliases = enable
	}
}

// WithKeepGeneratedDates keeps ^date rules even when they look generated.
func WithKeepGeneratedDates(keep bool) Option {
	return func(o *Options) {
		o.KeepGeneratedDates = keep
	}
}

// WithIndent enables indented rule rendering.
func WithIndent(enable bool) Option {
	return func(o *Options) {
		o.Indent = enable
	}
}

// WithPackageCache sets the FHIR package cache directory.
func WithPackageCache(path string) Option {
	return func(o *Options) {
		o.PackageCachePath = path
	}
}

// WithDownload allows missing dependencies to be downloaded.
func WithDownload(enable bool) Option {
	return func(o *Options) {
		o.Download = enable
	}
}

// WithStructureDefCache sets the parsed StructureDefinition cache size.
func WithStructureDefCache(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.StructureDefCacheSize = size
		}
	}
}
