// Package optimizer runs the passes that merge, prune and canonicalize the
// rules of an exportable Package. Passes are ordered by their declared
// RunBefore and RunAfter edges and applied one after another.
package optimizer

import (
	"fmt"
	"time"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/logger"
)

// PassError wraps the error of the pass that aborted a run.
type PassError struct {
	Pass string
	Err  error
}

// Error returns the error string.
func (e *PassError) Error() string {
	return fmt.Sprintf("optimizer pass %s failed: %v", e.Pass, e.Err)
}

// Unwrap returns the pass error.
func (e *PassError) Unwrap() error {
	return e.Err
}

// Optimizer applies a fixed set of passes.
type Optimizer struct {
	plugins []Plugin
	metrics *gofsh.Metrics
}

// New creates an optimizer over plugins, in registration order.
func New(plugins ...Plugin) *Optimizer {
	return &Optimizer{plugins: plugins}
}

// WithMetrics records per-pass timing in m.
func (o *Optimizer) WithMetrics(m *gofsh.Metrics) *Optimizer {
	o.metrics = m
	return o
}

// Plugins returns the registered passes.
func (o *Optimizer) Plugins() []Plugin {
	return o.plugins
}

// Run orders the passes and applies them to pkg. An ordering error means no
// pass ran. A failing pass aborts the remaining ones; changes made by
// earlier passes are kept.
func (o *Optimizer) Run(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	if opts == nil {
		opts = gofsh.DefaultOptions()
	}
	ordered, err := Order(o.plugins, opts)
	if err != nil {
		return err
	}

	for _, p := range ordered {
		before := CountRules(pkg)
		start := time.Now()
		err := p.Optimize(pkg, resolver, opts)
		duration := time.Since(start)
		delta := CountRules(pkg) - before

		if o.metrics != nil {
			o.metrics.RecordPass(p.Name(), duration, delta)
		}
		logger.Debug("Pass %s took %v (%+d rules)", p.Name(), duration, delta)

		if err != nil {
			return &PassError{Pass: p.Name(), Err: err}
		}
	}
	return nil
}

// Optimize applies plugins to pkg in dependency order.
func Optimize(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options, plugins ...Plugin) error {
	return New(plugins...).Run(pkg, resolver, opts)
}

// CountRules returns the total number of rules in pkg.
func CountRules(pkg *exportable.Package) int {
	n := 0
	for _, owner := range pkg.AllRuleOwners() {
		n += len(*owner.RuleList())
	}
	return n
}
