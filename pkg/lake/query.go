package lake

import "github.com/gofhir/gofsh/pkg/fhirtypes"

// Definitions returns the documents classified as one of types, in load order.
func (l *Lake) Definitions(types ...fhirtypes.FishType) []*Document {
	var out []*Document
	for _, doc := range l.docs {
		if fhirtypes.MatchesType(doc.FishType(), types) {
			out = append(out, doc)
		}
	}
	return out
}

// StructureDefinitions returns every StructureDefinition document.
func (l *Lake) StructureDefinitions() []*Document {
	return l.Definitions(fhirtypes.StructureDefinitionTypes...)
}

// ValueSets returns the first-class ValueSets.
func (l *Lake) ValueSets() []*Document {
	return l.Definitions(fhirtypes.FishValueSet)
}

// CodeSystems returns the first-class CodeSystems.
func (l *Lake) CodeSystems() []*Document {
	return l.Definitions(fhirtypes.FishCodeSystem)
}

// Instances returns documents treated as example records. The
// ImplementationGuide used for configuration is excluded.
func (l *Lake) Instances() []*Document {
	ig := l.ImplementationGuide()
	var out []*Document
	for _, doc := range l.Definitions(fhirtypes.FishInstance) {
		if doc != ig {
			out = append(out, doc)
		}
	}
	return out
}

// ImplementationGuide returns the first ImplementationGuide, or nil.
func (l *Lake) ImplementationGuide() *Document {
	for _, doc := range l.docs {
		if doc.ResourceType() == "ImplementationGuide" {
			return doc
		}
	}
	return nil
}

// FishForFHIR resolves item by id, name or canonical url. A "|version"
// suffix on item is ignored.
func (l *Lake) FishForFHIR(item string, types ...fhirtypes.FishType) (map[string]any, bool) {
	doc, ok := l.fish(item, types)
	if !ok {
		return nil, false
	}
	return doc.Content, true
}

// FishForMetadata resolves item and summarizes the matching document.
func (l *Lake) FishForMetadata(item string, types ...fhirtypes.FishType) (fhirtypes.Metadata, bool) {
	doc, ok := l.fish(item, types)
	if !ok {
		return fhirtypes.Metadata{}, false
	}
	return fhirtypes.MetadataOf(doc.Content, doc.FishType()), true
}

func (l *Lake) fish(item string, types []fhirtypes.FishType) (*Document, bool) {
	if item == "" {
		return nil, false
	}
	for _, doc := range l.lookup[fhirtypes.StripVersion(item)] {
		if fhirtypes.MatchesType(doc.FishType(), types) {
			return doc, true
		}
	}
	return nil, false
}
