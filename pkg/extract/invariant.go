package extract

import (
	"fmt"

	"github.com/gofhir/fhirpath"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// invariantFields are the constraint attributes an Invariant expresses.
var invariantFields = []string{"human", "severity", "expression", "xpath", "requirements"}

// obeys references the element's constraints. A constraint seen for the
// first time becomes an Invariant; one matching a known invariant key is
// only referenced, with caret rules for the fields that differ.
// Constraints inherited unchanged produce nothing.
func (d *Definition) obeys(e *element) []exportable.Rule {
	old, _ := d.inherited(e, "constraint")
	inherited := fhirtypes.Objects(old)

	obeys := &exportable.ObeysRule{Path: e.rootless()}
	var carets []exportable.Rule

	for i, c := range fhirtypes.Objects(e.Raw["constraint"]) {
		prefix := fmt.Sprintf("constraint[%d]", i)
		if containsEqual(inherited, c) {
			e.MarkProcessedPrefix(prefix)
			continue
		}
		key := fhirtypes.String(c, "key")
		if key == "" {
			continue
		}

		if inv, ok := d.ctx.findInvariant(key); ok {
			for _, field := range invariantFields {
				if v := fhirtypes.String(c, field); v != "" && v != invariantField(inv, field) {
					carets = append(carets, &exportable.CaretValueRule{
						Path:      e.path,
						CaretPath: prefix + "." + field,
						Value:     d.ctx.value(d.source(), e.path, caretFieldType(field), v),
					})
				}
			}
		} else {
			d.ctx.addInvariant(d.source(), c)
		}

		obeys.Keys = append(obeys.Keys, key)
		e.MarkProcessed(prefix + ".key")
		for _, field := range invariantFields {
			e.MarkProcessed(prefix + "." + field)
		}
		if src := fhirtypes.String(c, "source"); src == "" || src == d.SD.URL {
			e.MarkProcessed(prefix + ".source")
		}
	}

	if len(obeys.Keys) == 0 {
		return carets
	}
	return append([]exportable.Rule{obeys}, carets...)
}

func caretFieldType(field string) string {
	if field == "severity" {
		return "code"
	}
	return "string"
}

func containsEqual(list []map[string]any, item map[string]any) bool {
	for _, o := range list {
		if fhirtypes.Equal(o, item) {
			return true
		}
	}
	return false
}

func (c *Context) findInvariant(key string) (*exportable.Invariant, bool) {
	for _, inv := range c.Package.Invariants {
		if inv.Name == key {
			return inv, true
		}
	}
	return nil, false
}

// addInvariant registers a new invariant. The expression is checked with
// FHIRPath; an expression that does not compile is kept verbatim.
func (c *Context) addInvariant(source string, constraint map[string]any) *exportable.Invariant {
	inv := &exportable.Invariant{
		Name:        fhirtypes.String(constraint, "key"),
		Description: fhirtypes.String(constraint, "human"),
		Severity:    fhirtypes.String(constraint, "severity"),
		Expression:  fhirtypes.String(constraint, "expression"),
		XPath:       fhirtypes.String(constraint, "xpath"),
	}
	if req := fhirtypes.String(constraint, "requirements"); req != "" {
		inv.Rules = append(inv.Rules, &exportable.AssignmentRule{Path: "requirements", Value: req})
	}
	if inv.Expression != "" {
		if _, err := fhirpath.Compile(inv.Expression); err != nil {
			c.Result.Warnf(gofsh.IssueTypeInvalid, source,
				"invariant %s: expression %q does not compile: %v", inv.Name, inv.Expression, err)
		}
	}
	c.Package.Add(inv)
	return inv
}

func invariantField(inv *exportable.Invariant, field string) string {
	switch field {
	case "human":
		return inv.Description
	case "severity":
		return inv.Severity
	case "expression":
		return inv.Expression
	case "xpath":
		return inv.XPath
	case "requirements":
		for _, r := range inv.Rules {
			if a, ok := r.(*exportable.AssignmentRule); ok && a.Path == "requirements" {
				s, _ := a.Value.(string)
				return s
			}
		}
	}
	return ""
}
