package processor

import (
	"fmt"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/extract"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
	"github.com/gofhir/gofsh/pkg/lake"
)

// terminologyKeys are the top-level attributes expressed by entity keywords.
var terminologyKeys = []string{"resourceType", "id", "name", "title", "description"}

func (p *Processor) valueSet(doc *lake.Document) {
	vs, err := decodeR4[r4.ValueSet](doc.Content)
	if err != nil {
		p.result.Errorf(gofsh.IssueTypeInvalid, doc.Source(), "cannot read ValueSet: %v", err)
		return
	}

	entity := &exportable.ValueSet{Metadata: terminologyMetadata(doc)}
	consumed := make(map[string]bool)
	if vs.Compose != nil {
		compose, _ := doc.Content["compose"].(map[string]any)
		for i := range vs.Compose.Include {
			rule := p.component(&vs.Compose.Include[i], rawComponent(compose, "include", i), fmt.Sprintf("compose.include[%d]", i), true, consumed)
			if rule != nil {
				entity.Rules = append(entity.Rules, rule)
			}
		}
		for i := range vs.Compose.Exclude {
			rule := p.component(&vs.Compose.Exclude[i], rawComponent(compose, "exclude", i), fmt.Sprintf("compose.exclude[%d]", i), false, consumed)
			if rule != nil {
				entity.Rules = append(entity.Rules, rule)
			}
		}
	}
	entity.Rules = append(entity.Rules,
		p.ctx.EntityCarets(doc.Content, "ValueSet", doc.Source(), skipKeys(terminologyKeys, consumed))...)
	p.add(entity, len(entity.Rules), true)
}

func rawComponent(compose map[string]any, kind string, i int) map[string]any {
	list := fhirtypes.Objects(compose[kind])
	if i < len(list) {
		return list[i]
	}
	return nil
}

// component converts one include or exclude. Enumerated concepts become a
// concept component, everything else a filter component. Attributes with
// no component form (version, designations) stay for caret rules.
func (p *Processor) component(inc *r4.ValueSetComposeInclude, raw map[string]any, prefix string, include bool, consumed map[string]bool) exportable.Rule {
	system := deref(inc.System)
	valueSets := fhirtypes.Strings(raw["valueSet"])
	if system == "" && len(valueSets) == 0 {
		return nil
	}

	consume := func(keys ...string) {
		for _, k := range keys {
			consumed[prefix+"."+k] = true
		}
	}
	// The from keys are consumed only once a rule expresses them.
	consumeFrom := func() {
		if system != "" {
			consume("system")
		}
		for i := range valueSets {
			consume(fmt.Sprintf("valueSet[%d]", i))
		}
	}

	if len(inc.Concept) > 0 {
		if system == "" {
			return nil
		}
		consumeFrom()
		rule := &exportable.ValueSetConceptComponentRule{
			Inclusion: include,
			From:      exportable.ValueSetComponentFrom{ValueSets: valueSets},
		}
		for i, c := range inc.Concept {
			rule.Concepts = append(rule.Concepts, fshtypes.Code{
				Code:    deref(c.Code),
				System:  system,
				Display: deref(c.Display),
			})
			consume(fmt.Sprintf("concept[%d].code", i), fmt.Sprintf("concept[%d].display", i))
		}
		return rule
	}

	consumeFrom()
	rule := &exportable.ValueSetFilterComponentRule{
		Inclusion: include,
		From:      exportable.ValueSetComponentFrom{System: system, ValueSets: valueSets},
	}
	for i, f := range inc.Filter {
		op := ""
		if f.Op != nil {
			op = string(*f.Op)
		}
		property, value := deref(f.Property), deref(f.Value)
		rule.Filters = append(rule.Filters, exportable.ValueSetFilter{
			Property: property,
			Operator: op,
			Value:    filterValue(property, op, value),
		})
		consume(fmt.Sprintf("filter[%d].property", i), fmt.Sprintf("filter[%d].op", i), fmt.Sprintf("filter[%d].value", i))
	}
	return rule
}

// filterValue types a filter value by its operator.
func filterValue(property, op, value string) any {
	switch op {
	case "is-a", "descendent-of", "is-not-a", "generalizes":
		return fshtypes.Code{Code: value}
	case "exists":
		switch value {
		case "true":
			return true
		case "false":
			return false
		}
	case "=":
		if property == "concept" {
			return fshtypes.Code{Code: value}
		}
	}
	return value
}

func (p *Processor) codeSystem(doc *lake.Document) {
	cs, err := decodeR4[r4.CodeSystem](doc.Content)
	if err != nil {
		p.result.Errorf(gofsh.IssueTypeInvalid, doc.Source(), "cannot read CodeSystem: %v", err)
		return
	}

	entity := &exportable.CodeSystem{Metadata: terminologyMetadata(doc)}
	consumed := make(map[string]bool)
	var conceptRules []exportable.Rule
	p.concepts(cs.Concept, fhirtypes.Objects(doc.Content["concept"]), nil, doc.Source(), &conceptRules)
	for _, entry := range fhirtypes.Flatten(doc.Content) {
		if fhirtypes.HasKeyPrefix(entry.Key, "concept") {
			consumed[entry.Key] = true
		}
	}

	entity.Rules = append(entity.Rules,
		p.ctx.EntityCarets(doc.Content, "CodeSystem", doc.Source(), skipKeys(terminologyKeys, consumed))...)
	entity.Rules = append(entity.Rules, conceptRules...)
	p.add(entity, len(entity.Rules), true)
}

// concepts emits a ConceptRule per concept, depth first. Concept attributes
// other than code, display, definition and children become caret rules on
// the concept.
func (p *Processor) concepts(concepts []r4.CodeSystemConcept, raw []map[string]any, hierarchy []string, source string, out *[]exportable.Rule) {
	for i, c := range concepts {
		code := deref(c.Code)
		rule := &exportable.ConceptRule{
			Code:       code,
			Display:    deref(c.Display),
			Definition: deref(c.Definition),
			Hierarchy:  append([]string{}, hierarchy...),
		}
		*out = append(*out, rule)

		if i < len(raw) {
			for _, entry := range fhirtypes.Flatten(raw[i]) {
				switch fhirtypes.StripIndices(entry.Key) {
				case "code", "display", "definition":
					continue
				}
				if fhirtypes.HasKeyPrefix(entry.Key, "concept") {
					continue
				}
				if entry.IsEmptyContainer() {
					p.result.Errorf(gofsh.IssueTypeValue, source, "concept %s: empty value at %s dropped", code, entry.Key)
					continue
				}
				typ := p.ctx.Types.TypeOf("CodeSystem", "concept."+entry.Key)
				*out = append(*out, &exportable.CaretValueRule{
					Path:      rule.RulePath(),
					CaretPath: entry.Key,
					Value:     extract.ConvertValue(typ, entry.Value),
				})
			}
		}

		var children []map[string]any
		if i < len(raw) {
			children = fhirtypes.Objects(raw[i]["concept"])
		}
		p.concepts(c.Concept, children, append(rule.Hierarchy, code), source, out)
	}
}

func terminologyMetadata(doc *lake.Document) exportable.Metadata {
	name := doc.Name()
	if name == "" {
		name = doc.ID()
	}
	return exportable.Metadata{
		Name:        name,
		ID:          doc.ID(),
		Title:       fhirtypes.String(doc.Content, "title"),
		Description: fhirtypes.String(doc.Content, "description"),
	}
}
