package processor

import (
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/lake"
)

// definitionalTypes are resource types whose instances describe
// conformance artifacts rather than example data.
var definitionalTypes = map[string]bool{
	"CapabilityStatement":     true,
	"CodeSystem":              true,
	"CompartmentDefinition":   true,
	"ConceptMap":              true,
	"ExampleScenario":         true,
	"GraphDefinition":         true,
	"ImplementationGuide":     true,
	"MessageDefinition":       true,
	"NamingSystem":            true,
	"OperationDefinition":     true,
	"SearchParameter":         true,
	"StructureDefinition":     true,
	"StructureMap":            true,
	"TerminologyCapabilities": true,
	"ValueSet":                true,
}

// Usage returns the instance usage of a resource type.
func Usage(resourceType string) string {
	if definitionalTypes[resourceType] {
		return "definition"
	}
	return "example"
}

func (p *Processor) instance(doc *lake.Document) {
	resourceType := doc.ResourceType()
	id := doc.ID()

	inst := &exportable.Instance{
		Metadata:   exportable.Metadata{Name: p.uniqueName(id, resourceType), ID: id},
		InstanceOf: resourceType,
		Usage:      Usage(resourceType),
	}

	consumed := map[string]bool{}
	if meta, ok := doc.Content["meta"].(map[string]any); ok && p.ctx.Resolver != nil {
		if profiles := fhirtypes.Strings(meta["profile"]); len(profiles) == 1 {
			if _, known := p.ctx.Resolver.FishForMetadata(profiles[0], fhirtypes.StructureDefinitionTypes...); known {
				inst.InstanceOf = profiles[0]
				consumed["meta.profile[0]"] = true
			}
		}
	}

	inst.Rules = p.ctx.InstanceRules(doc.Content, resourceType, doc.Source(), skipKeys([]string{"resourceType", "id"}, consumed))
	p.add(inst, len(inst.Rules), false)
}
