// Package processor turns the documents of a definition store into the
// entities of an exportable Package.
package processor

import (
	"encoding/json"
	"fmt"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/extract"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/lake"
	"github.com/gofhir/gofsh/pkg/logger"
)

// Processor populates one Package from one Lake.
type Processor struct {
	lake    *lake.Lake
	ctx     *extract.Context
	opts    *gofsh.Options
	result  *gofsh.Result
	metrics *gofsh.Metrics

	names map[string]bool
}

// New creates a processor. resolver is consulted for parents, element
// types and profile names; it normally wraps l.
func New(l *lake.Lake, resolver fhirtypes.Resolver, opts *gofsh.Options, result *gofsh.Result) *Processor {
	if opts == nil {
		opts = gofsh.DefaultOptions()
	}
	pkg := exportable.NewPackage()
	return &Processor{
		lake:   l,
		ctx:    extract.NewContext(resolver, pkg, opts, result),
		opts:   opts,
		result: result,
		names:  make(map[string]bool),
	}
}

// WithMetrics records processed definitions and emitted rules in m.
func (p *Processor) WithMetrics(m *gofsh.Metrics) *Processor {
	p.metrics = m
	return p
}

// Extract processes every document of l into a new Package.
func Extract(l *lake.Lake, resolver fhirtypes.Resolver, opts *gofsh.Options, result *gofsh.Result) *exportable.Package {
	return New(l, resolver, opts, result).Process()
}

// Process runs the StructureDefinition, ValueSet, CodeSystem, instance and
// configuration processors in that order.
func (p *Processor) Process() *exportable.Package {
	pkg := p.ctx.Package

	for _, doc := range p.lake.StructureDefinitions() {
		p.structureDefinition(doc)
	}
	for _, doc := range p.lake.ValueSets() {
		p.valueSet(doc)
	}
	for _, doc := range p.lake.CodeSystems() {
		p.codeSystem(doc)
	}
	for _, doc := range p.lake.Instances() {
		p.instance(doc)
	}
	pkg.Add(ProcessConfig(p.lake, p.opts.Dependencies, p.opts))

	logger.Debug("Processed %d profile(s), %d extension(s), %d logical(s), %d resource(s), %d value set(s), %d code system(s), %d instance(s)",
		len(pkg.Profiles), len(pkg.Extensions), len(pkg.Logicals), len(pkg.Resources),
		len(pkg.ValueSets), len(pkg.CodeSystems), len(pkg.Instances))
	return pkg
}

func (p *Processor) add(e exportable.Entity, rules int, definition bool) {
	p.ctx.Package.Add(e)
	p.names[e.EntityName()] = true
	if p.metrics == nil {
		return
	}
	if definition {
		p.metrics.RecordDefinition()
	} else {
		p.metrics.RecordInstance()
	}
	p.metrics.RecordRules(rules)
}

// uniqueName returns name, or a variant qualified by qualifier when an
// entity already uses it.
func (p *Processor) uniqueName(name, qualifier string) string {
	if !p.names[name] {
		return name
	}
	candidate := qualifier + "-" + name
	for n := 2; p.names[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%s-%d", qualifier, name, n)
	}
	return candidate
}

// decodeR4 re-decodes generic content into a typed r4 resource.
func decodeR4[T any](content map[string]any) (*T, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// skipKeys builds a skip function over flattened keys: a key is skipped
// when its top-level attribute is in tops or the key itself was consumed.
func skipKeys(tops []string, consumed map[string]bool) func(string) bool {
	top := make(map[string]bool, len(tops))
	for _, t := range tops {
		top[t] = true
	}
	return func(key string) bool {
		if consumed[key] {
			return true
		}
		name := key
		for i := 0; i < len(key); i++ {
			if key[i] == '.' || key[i] == '[' {
				name = key[:i]
				break
			}
		}
		return top[name]
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
