// Package lake is the definition store: every document loaded from the
// input folder, indexed by resourceType+id, canonical url and name.
package lake

import (
	"encoding/json"
	"fmt"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// Document is one decoded input file. Content is only mutated by the
// cleanup phase when it assigns a missing id.
type Document struct {
	Content map[string]any
	Path    string

	fishType fhirtypes.FishType
}

// NewDocument wraps decoded content and classifies it.
func NewDocument(content map[string]any, path string) *Document {
	d := &Document{Content: content, Path: path}
	d.fishType = classify(content)
	return d
}

// ResourceType returns the document's resourceType.
func (d *Document) ResourceType() string { return fhirtypes.String(d.Content, "resourceType") }

// ID returns the document's id.
func (d *Document) ID() string { return fhirtypes.String(d.Content, "id") }

// URL returns the canonical url, if any.
func (d *Document) URL() string { return fhirtypes.String(d.Content, "url") }

// Name returns the name, if any.
func (d *Document) Name() string { return fhirtypes.String(d.Content, "name") }

// FishType returns the kind the document was classified as.
func (d *Document) FishType() fhirtypes.FishType { return d.fishType }

// Key returns "resourceType/id".
func (d *Document) Key() string {
	return d.ResourceType() + "/" + d.ID()
}

// Source describes the document for log messages.
func (d *Document) Source() string {
	if d.ID() != "" {
		return d.Key()
	}
	if d.Path != "" {
		return d.Path
	}
	return d.ResourceType()
}

func classify(content map[string]any) fhirtypes.FishType {
	switch fhirtypes.String(content, "resourceType") {
	case "StructureDefinition":
		return fhirtypes.Classify(content)
	case "ValueSet":
		if IsFirstClassValueSet(content) {
			return fhirtypes.FishValueSet
		}
	case "CodeSystem":
		if IsFirstClassCodeSystem(content) {
			return fhirtypes.FishCodeSystem
		}
	}
	return fhirtypes.FishInstance
}

// IsFirstClassValueSet reports whether a ValueSet has real composition or
// expansion content. Other ValueSets are treated as plain instances.
func IsFirstClassValueSet(content map[string]any) bool {
	vs, err := toR4[r4.ValueSet](content)
	if err != nil {
		return false
	}
	if vs.Compose != nil && len(vs.Compose.Include) > 0 {
		return true
	}
	return vs.Expansion != nil && len(vs.Expansion.Contains) > 0
}

// IsFirstClassCodeSystem reports whether a CodeSystem defines at least one
// concept.
func IsFirstClassCodeSystem(content map[string]any) bool {
	cs, err := toR4[r4.CodeSystem](content)
	if err != nil {
		return false
	}
	return len(cs.Concept) > 0
}

// toR4 re-decodes generic content into a typed r4 resource.
func toR4[T any](content map[string]any) (*T, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %T: %w", out, err)
	}
	return &out, nil
}
