// Package extract turns element definitions and instance content into FSH
// rules. Every attribute of an element is consumed exactly once: either by
// a specific extractor (card, flags, only, binding, assignment, contains,
// obeys, mapping, add-element) or by the caret extractor that picks up the
// rest. Values unchanged from the nearest ancestor produce no rule.
package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// Context is shared by every extraction of one run.
type Context struct {
	Resolver fhirtypes.Resolver
	Types    *ValueTypes
	Package  *exportable.Package
	Result   *gofsh.Result
	Options  *gofsh.Options
}

// NewContext creates an extraction context. Invariants discovered while
// extracting are added to pkg.
func NewContext(resolver fhirtypes.Resolver, pkg *exportable.Package, opts *gofsh.Options, result *gofsh.Result) *Context {
	if opts == nil {
		opts = gofsh.DefaultOptions()
	}
	return &Context{
		Resolver: resolver,
		Types:    NewValueTypes(resolver),
		Package:  pkg,
		Result:   result,
		Options:  opts,
	}
}

// Definition extracts the rules of one StructureDefinition.
type Definition struct {
	ctx *Context

	SD       *fhirtypes.StructureDefinition
	Ancestry *Ancestry

	// AddElements treats elements unknown to every ancestor as new
	// elements (logical models and resources).
	AddElements bool

	mappings map[string][]exportable.Rule
}

// NewDefinition prepares extraction of sd.
func (c *Context) NewDefinition(sd *fhirtypes.StructureDefinition, addElements bool) *Definition {
	return &Definition{
		ctx:         c,
		SD:          sd,
		Ancestry:    NewAncestry(c.Resolver, sd),
		AddElements: addElements,
		mappings:    make(map[string][]exportable.Rule),
	}
}

func (d *Definition) source() string {
	if d.SD.URL != "" {
		return d.SD.URL
	}
	return "StructureDefinition/" + d.SD.ID
}

// Rules extracts the rules of every differential element in order.
func (d *Definition) Rules() []exportable.Rule {
	var rules []exportable.Rule
	for _, ed := range d.SD.Differential {
		rules = append(rules, d.Element(ed)...)
	}
	return rules
}

// element is one element under extraction.
type element struct {
	*fhirtypes.ProcessableElementDefinition
	path string
}

// rootless returns the path used by rules that address the root element
// implicitly.
func (e *element) rootless() string {
	if e.path == "." {
		return ""
	}
	return e.path
}

// Element extracts the rules of one differential element.
func (d *Definition) Element(ed *fhirtypes.ElementDefinition) []exportable.Rule {
	e := newElement(ed)
	return append(d.specific(e), d.carets(e)...)
}

func newElement(ed *fhirtypes.ElementDefinition) *element {
	return &element{
		ProcessableElementDefinition: fhirtypes.NewProcessableElementDefinition(ed),
		path:                         ed.FSHPath(),
	}
}

// specific runs every extractor except the generic caret extractor.
func (d *Definition) specific(e *element) []exportable.Rule {
	ed := e.ElementDefinition

	// The compiler names a choice type slice after its type.
	if e.IsChoiceSlice() && e.Raw["sliceName"] == e.LastSliceName() {
		e.MarkProcessed("sliceName")
	}

	var rules []exportable.Rule
	add := func(r exportable.Rule) {
		if r != nil {
			rules = append(rules, r)
		}
	}

	if d.AddElements && !ed.IsRoot() && !d.Ancestry.Known(ed.ID) {
		add(d.addElement(e))
	} else {
		// A contains rule declares the slice path, so it precedes every
		// rule on the slice itself. It carries the slice's card and flags.
		if c := d.contains(e); c != nil {
			add(c)
		} else {
			add(d.card(e))
			add(d.flags(e))
		}
		add(d.only(e))
	}
	add(d.binding(e))
	rules = append(rules, d.assignments(e)...)
	rules = append(rules, d.obeys(e)...)
	d.collectMappings(e)
	return rules
}

// inherited returns the value an ancestor holds for a top-level attribute.
func (d *Definition) inherited(e *element, key string) (any, bool) {
	return d.Ancestry.Lookup(e.ID, key)
}

// unchanged reports whether the element's value for key equals what it
// inherits.
func (d *Definition) unchanged(e *element, key string) bool {
	v, ok := e.Raw[key]
	if !ok {
		return false
	}
	old, ok := d.inherited(e, key)
	return ok && fhirtypes.Equal(v, old)
}

// value converts a raw leaf for a target type, warning when a temporal
// value does not match its grammar. The value is kept either way.
func (c *Context) value(source, path, typ string, v any) any {
	if s, ok := v.(string); ok && fhirtypes.IsTemporalType(typ) && !fhirtypes.ValidTemporal(typ, s) {
		c.Result.Warnf(gofsh.IssueTypeValue, source, "%s: %q is not a valid %s, kept verbatim", path, s, typ)
	}
	return ConvertValue(typ, v)
}

// dropEmpty reports an empty array or object that has no FSH form.
func (c *Context) dropEmpty(source, path string) {
	c.Result.Errorf(gofsh.IssueTypeValue, source, "%s: empty value cannot be expressed and was dropped", path)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func joinPath(base, sub string) string {
	switch {
	case base == "" || base == ".":
		return sub
	case sub == "":
		return base
	}
	return base + "." + sub
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// topKey returns the top-level attribute of a flattened key.
func topKey(key string) string {
	if i := strings.IndexAny(key, ".["); i >= 0 {
		return key[:i]
	}
	return key
}

func lastSegment(id string) string {
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		return id[i+1:]
	}
	return id
}
