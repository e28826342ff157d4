package extract

import (
	"strings"

	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// contains declares a slice that no ancestor defines. The slice's
// cardinality and flags travel with the contains item; extension slices
// name their extension definition as item type.
func (d *Definition) contains(e *element) exportable.Rule {
	if !e.IsSlice() || d.Ancestry.HasElement(e.ID) {
		return nil
	}
	e.MarkProcessed("sliceName")

	item := exportable.ContainsItem{
		Name: e.LastSliceName(),
		Card: d.sliceCard(e),
	}
	if flags := d.flagRule(e, ""); flags.HasFlags() {
		item.Flags = flags
	}

	base, _, _ := strings.Cut(lastSegment(e.ID), ":")
	if base == "extension" || base == "modifierExtension" {
		types := fhirtypes.Objects(e.Raw["type"])
		if len(types) == 1 && fhirtypes.String(types[0], "code") == "Extension" {
			if profiles := fhirtypes.Strings(types[0]["profile"]); len(profiles) == 1 {
				item.Type = profiles[0]
				e.MarkProcessed("type[0].code", "type[0].profile[0]")
			}
		}
	}

	return &exportable.ContainsRule{
		Path:   fhirtypes.FSHPathForID(e.SlicedElementID()),
		Items:  []exportable.ContainsItem{item},
		Indent: d.ctx.Options.Indent,
	}
}

// sliceCard returns the complete cardinality of a new slice, taking
// missing bounds from the unsliced element.
func (d *Definition) sliceCard(e *element) *exportable.CardRule {
	card := &exportable.CardRule{Min: 0, HasMin: true, Max: "*"}

	if n, ok := asInt(e.Raw["min"]); ok {
		card.Min = n
		e.MarkProcessed("min")
	} else if old, ok := d.inherited(e, "min"); ok {
		if n, ok := asInt(old); ok {
			card.Min = n
		}
	}

	if max, ok := e.Raw["max"].(string); ok {
		card.Max = max
		e.MarkProcessed("max")
	} else if old, ok := d.inherited(e, "max"); ok {
		if max, ok := old.(string); ok {
			card.Max = max
		}
	}
	return card
}
