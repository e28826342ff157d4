package optimizer

import (
	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// Plugin is one optimizer pass. Passes mutate the package in place and
// never call each other; ordering is declared through pass names only.
type Plugin interface {
	// Name returns the unique identifier of the pass.
	Name() string

	// Description explains what the pass does.
	Description() string

	// RunBefore lists passes this pass must precede.
	RunBefore() []string

	// RunAfter lists passes this pass must follow.
	RunAfter() []string

	// Optimize rewrites pkg.
	Optimize(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error
}

// Enabler is implemented by passes that only run under some options.
type Enabler interface {
	Enabled(opts *gofsh.Options) bool
}

// OptimizeFunc is the signature of a pass body.
type OptimizeFunc func(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error

// PluginFunc is a Plugin built from a function.
// Useful for simple passes that don't need a full struct.
type PluginFunc struct {
	name        string
	description string
	before      []string
	after       []string
	enabled     func(*gofsh.Options) bool
	fn          OptimizeFunc
}

// PluginOption configures a PluginFunc.
type PluginOption func(*PluginFunc)

// WithDescription sets the pass description.
func WithDescription(description string) PluginOption {
	return func(p *PluginFunc) {
		p.description = description
	}
}

// Before declares passes this pass must precede.
func Before(names ...string) PluginOption {
	return func(p *PluginFunc) {
		p.before = append(p.before, names...)
	}
}

// After declares passes this pass must follow.
func After(names ...string) PluginOption {
	return func(p *PluginFunc) {
		p.after = append(p.after, names...)
	}
}

// EnabledWhen makes the pass conditional on the options.
func EnabledWhen(fn func(*gofsh.Options) bool) PluginOption {
	return func(p *PluginFunc) {
		p.enabled = fn
	}
}

// NewPluginFunc creates a Plugin from a function.
func NewPluginFunc(name string, fn OptimizeFunc, opts ...PluginOption) *PluginFunc {
	p := &PluginFunc{name: name, fn: fn}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Plugin.
func (p *PluginFunc) Name() string { return p.name }

// Description implements Plugin.
func (p *PluginFunc) Description() string { return p.description }

// RunBefore implements Plugin.
func (p *PluginFunc) RunBefore() []string { return p.before }

// RunAfter implements Plugin.
func (p *PluginFunc) RunAfter() []string { return p.after }

// Enabled implements Enabler.
func (p *PluginFunc) Enabled(opts *gofsh.Options) bool {
	return p.enabled == nil || p.enabled(opts)
}

// Optimize implements Plugin.
func (p *PluginFunc) Optimize(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	if p.fn == nil {
		return nil
	}
	return p.fn(pkg, resolver, opts)
}
