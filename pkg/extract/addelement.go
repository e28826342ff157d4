package extract

import (
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// addElement declares an element of a logical model or resource that no
// ancestor defines.
func (d *Definition) addElement(e *element) exportable.Rule {
	rule := &exportable.AddElementRule{
		Path: e.path,
		Max:  "*",
	}
	if n, ok := asInt(e.Raw["min"]); ok {
		rule.Min = n
		e.MarkProcessed("min")
	}
	if max, ok := e.Raw["max"].(string); ok {
		rule.Max = max
		e.MarkProcessed("max")
	}

	if ref := fhirtypes.String(e.Raw, "contentReference"); ref != "" {
		if ref[0] == '#' {
			ref = d.SD.URL + ref
		}
		rule.ContentReference = ref
		e.MarkProcessed("contentReference")
	} else {
		rule.Types = onlyTypes(e)
	}

	rule.Flags = *d.flagRule(e, e.path)
	rule.Short = fhirtypes.String(e.Raw, "short")
	rule.Definition = fhirtypes.String(e.Raw, "definition")
	if rule.Short == "" {
		rule.Short = rule.Definition
	}
	e.MarkProcessed("short", "definition")
	e.MarkProcessedPrefix("base")
	return rule
}
