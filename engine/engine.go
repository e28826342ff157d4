// Package engine runs a complete conversion: it loads the input definitions
// and their dependency packages, extracts FSH rules and optimizes them.
package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/optimizer"
	"github.com/gofhir/gofsh/optimizer/plugins"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fisher"
	"github.com/gofhir/gofsh/pkg/lake"
	"github.com/gofhir/gofsh/pkg/loader"
	"github.com/gofhir/gofsh/pkg/logger"
	"github.com/gofhir/gofsh/pkg/processor"
	"github.com/gofhir/gofsh/pkg/registry"
)

// Engine converts FHIR definitions to FSH.
type Engine struct {
	options *gofsh.Options
	plugins []optimizer.Plugin
	metrics *gofsh.Metrics
}

// Output is the outcome of one run.
type Output struct {
	Package  *exportable.Package
	Result   *gofsh.Result
	Metrics  *gofsh.Metrics
	Duration time.Duration
}

// New creates an Engine with the given options and the full pass catalogue.
func New(opts ...gofsh.Option) *Engine {
	return &Engine{
		options: gofsh.Apply(opts...),
		plugins: plugins.All(),
		metrics: gofsh.NewMetrics(),
	}
}

// WithPlugins replaces the optimizer passes.
func (e *Engine) WithPlugins(p ...optimizer.Plugin) *Engine {
	e.plugins = p
	return e
}

// Options returns the engine options.
func (e *Engine) Options() *gofsh.Options {
	return e.options
}

// Metrics returns the engine metrics.
func (e *Engine) Metrics() *gofsh.Metrics {
	return e.metrics
}

// Plugins returns the optimizer passes in registration order.
func (e *Engine) Plugins() []optimizer.Plugin {
	return e.plugins
}

// Run converts the JSON files and directories in inputs. Problems with
// individual documents or dependencies are recorded in the Output result;
// an error means the run itself could not complete.
func (e *Engine) Run(ctx context.Context, inputs ...string) (*Output, error) {
	start := time.Now()
	result := gofsh.NewResult()

	l := lake.New(result)
	for _, input := range inputs {
		if err := loadInput(l, input); err != nil {
			return nil, err
		}
	}
	if l.Len() == 0 {
		result.Warnf(gofsh.IssueTypeNotFound, "", "no FHIR resources found in the inputs")
	}
	l.Cleanup()

	reg, err := e.loadDependencies(ctx, l, result)
	if err != nil {
		return nil, err
	}

	resolver := fisher.New(l, reg,
		fisher.WithCacheSize(e.options.StructureDefCacheSize),
		fisher.WithMetrics(e.metrics),
	)
	pkg := processor.New(l, resolver, e.options, result).WithMetrics(e.metrics).Process()

	if err := optimizer.New(e.plugins...).WithMetrics(e.metrics).Run(pkg, resolver, e.options); err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	out := &Output{
		Package:  pkg,
		Result:   result,
		Metrics:  e.metrics,
		Duration: time.Since(start),
	}
	logger.Info("Converted %d definition(s) and %d instance(s) in %v",
		e.metrics.Definitions(), e.metrics.Instances(), out.Duration)
	return out, nil
}

func loadInput(l *lake.Lake, input string) error {
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("failed to read input %s: %w", input, err)
	}
	if info.IsDir() {
		n, err := l.LoadDir(input)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", input, err)
		}
		logger.Debug("Loaded %d file(s) from %s", n, input)
		return nil
	}
	return l.LoadFile(input)
}

// dependencyRefs returns the core package followed by the configured and
// ImplementationGuide dependencies in name order.
func (e *Engine) dependencyRefs(l *lake.Lake) []loader.PackageRef {
	refs := []loader.PackageRef{loader.ParsePackageRef(e.options.FHIRVersion.CorePackage())}

	deps := processor.ProcessConfig(l, e.options.Dependencies, e.options).Dependencies
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		refs = append(refs, loader.PackageRef{Name: name, Version: deps[name]})
	}
	return refs
}

// loadDependencies loads every dependency package concurrently into a
// registry. Packages that cannot be loaded are reported and skipped.
func (e *Engine) loadDependencies(ctx context.Context, l *lake.Lake, result *gofsh.Result) (*registry.Registry, error) {
	var loaderOpts []loader.LoaderOption
	if e.options.Download {
		loaderOpts = append(loaderOpts, loader.WithClient(loader.NewClient(loader.WithCacheDir(e.options.PackageCachePath))))
	}
	ldr := loader.NewLoader(e.options.PackageCachePath, loaderOpts...)

	refs := e.dependencyRefs(l)
	packages, failures, err := ldr.LoadAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	for _, f := range failures {
		result.Warnf(gofsh.IssueTypeNotFound, f.Ref.String(), "dependency could not be loaded, definitions from it will not resolve: %v", f.Err)
	}

	reg := registry.New()
	n := reg.LoadFromPackages(packages)
	logger.Info("Loaded %d definition(s) from %d of %d package(s)", n, len(packages), len(refs))
	return reg, nil
}
