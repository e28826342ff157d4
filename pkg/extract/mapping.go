package extract

import (
	"fmt"

	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// collectMappings gathers the element's mapping entries per identity. An
// entry the ancestor already has with the same identity and map is
// inherited. Entries whose identity is not declared on the definition are
// left to the caret extractor.
func (d *Definition) collectMappings(e *element) {
	old, _ := d.inherited(e, "mapping")
	inherited := fhirtypes.Objects(old)

	for i, m := range fhirtypes.Objects(e.Raw["mapping"]) {
		prefix := fmt.Sprintf("mapping[%d]", i)
		identity := fhirtypes.String(m, "identity")
		target := fhirtypes.String(m, "map")

		seen := false
		for _, o := range inherited {
			if fhirtypes.String(o, "identity") == identity && fhirtypes.String(o, "map") == target {
				seen = true
				break
			}
		}
		if seen {
			e.MarkProcessedPrefix(prefix)
			continue
		}
		if !d.declaresMapping(identity) {
			continue
		}

		rule := &exportable.MappingRule{
			Path:    e.rootless(),
			Map:     target,
			Comment: fhirtypes.String(m, "comment"),
		}
		if lang := fhirtypes.String(m, "language"); lang != "" {
			rule.Language = &fshtypes.Code{Code: lang}
		}
		d.mappings[identity] = append(d.mappings[identity], rule)
		e.MarkProcessed(prefix+".identity", prefix+".map", prefix+".comment", prefix+".language")
	}
}

func (d *Definition) declaresMapping(identity string) bool {
	for _, m := range d.SD.Mappings {
		if m.Identity == identity {
			return true
		}
	}
	return false
}

// Mappings returns the Mapping entities of the definition. A mapping is
// kept when it has at least one new rule or differs from the parent's
// mapping with the same identity.
func (d *Definition) Mappings(source string) []*exportable.Mapping {
	var out []*exportable.Mapping
	for _, m := range d.SD.Mappings {
		rules := d.mappings[m.Identity]
		if parent, ok := d.Ancestry.Mapping(m.Identity); ok && len(rules) == 0 && parent == m {
			continue
		}
		out = append(out, &exportable.Mapping{
			Name:        m.Identity,
			ID:          m.Identity,
			Source:      source,
			Target:      m.URI,
			Title:       m.Name,
			Description: m.Comment,
			Rules:       rules,
		})
	}
	return out
}
