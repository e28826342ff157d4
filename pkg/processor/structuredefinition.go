package processor

import (
	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/lake"
)

// definitionKeys are top-level StructureDefinition attributes expressed by
// entity keywords or set by the FSH compiler.
var definitionKeys = []string{
	"resourceType", "id", "name", "title", "description", "baseDefinition",
	"type", "kind", "derivation", "fhirVersion", "snapshot", "differential",
	"mapping",
}

func (p *Processor) structureDefinition(doc *lake.Document) {
	sd, err := fhirtypes.NewStructureDefinition(doc.Content, false)
	if err != nil {
		p.result.Errorf(gofsh.IssueTypeInvalid, doc.Source(), "cannot read StructureDefinition: %v", err)
		return
	}

	name := sd.Name
	if name == "" {
		name = sd.ID
	}
	md := exportable.Metadata{Name: name, ID: sd.ID, Title: sd.Title, Description: sd.Description}
	source := doc.Source()

	tops := append([]string{}, definitionKeys...)
	if !sd.Abstract {
		tops = append(tops, "abstract")
	}

	fishType := doc.FishType()
	if fishType == fhirtypes.FishExtension {
		tops = append(tops, "context")
	}
	if fishType == fhirtypes.FishDataType {
		p.result.Warnf(gofsh.IssueTypeNotSupported, source,
			"%s defines a new data type, which has no FSH keyword; exported as an instance", name)
		p.instance(doc)
		return
	}

	def := p.ctx.NewDefinition(sd, fishType == fhirtypes.FishLogical || fishType == fhirtypes.FishResource)
	rules := p.ctx.EntityCarets(sd.Raw, "StructureDefinition", source, skipKeys(tops, nil))
	rules = append(rules, def.Rules()...)

	var entity exportable.RuleOwner
	switch fishType {
	case fhirtypes.FishProfile:
		entity = &exportable.Profile{Metadata: md, Parent: sd.BaseDefinition, Rules: rules}
	case fhirtypes.FishExtension:
		ext := &exportable.Extension{Metadata: md, Parent: sd.BaseDefinition, Rules: rules}
		for _, c := range sd.Context {
			ext.Contexts = append(ext.Contexts, exportable.Context{Type: c.Type, Expression: c.Expression})
		}
		entity = ext
	case fhirtypes.FishLogical:
		entity = &exportable.Logical{Metadata: md, Parent: sd.BaseDefinition, Rules: rules}
	default:
		entity = &exportable.Resource{Metadata: md, Parent: sd.BaseDefinition, Rules: rules}
	}
	p.add(entity, len(rules), true)

	for _, m := range def.Mappings(name) {
		if p.names[m.Name] {
			m.Name = p.uniqueName(m.Name, name)
		}
		p.add(m, len(m.Rules), true)
	}
}
