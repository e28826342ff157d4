package extract

import (
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// maxAncestors bounds the parent chain walked for one definition.
const maxAncestors = 32

// Ancestry is the chain of parents of a definition, nearest first. It
// answers what an element inherits before the definition constrains it.
type Ancestry struct {
	chain []*fhirtypes.StructureDefinition
}

// NewAncestry resolves the baseDefinition chain of sd. Parents are parsed
// without requiring a snapshot so local definitions that only carry a
// differential still contribute. Resolution stops at the first miss.
func NewAncestry(resolver fhirtypes.Fishable, sd *fhirtypes.StructureDefinition) *Ancestry {
	a := &Ancestry{}
	if resolver == nil {
		return a
	}
	seen := map[string]bool{sd.URL: true}
	next := sd.BaseDefinition
	for next != "" && !seen[next] && len(a.chain) < maxAncestors {
		seen[next] = true
		doc, ok := resolver.FishForFHIR(next, fhirtypes.StructureDefinitionTypes...)
		if !ok {
			break
		}
		parent, err := fhirtypes.NewStructureDefinition(doc, false)
		if err != nil {
			break
		}
		a.chain = append(a.chain, parent)
		next = parent.BaseDefinition
	}
	return a
}

// Parent returns the nearest parent, or nil.
func (a *Ancestry) Parent() *fhirtypes.StructureDefinition {
	if len(a.chain) == 0 {
		return nil
	}
	return a.chain[0]
}

// Len returns the number of resolved ancestors.
func (a *Ancestry) Len() int {
	return len(a.chain)
}

// HasElement reports whether any ancestor defines the element with exactly
// this id.
func (a *Ancestry) HasElement(id string) bool {
	for _, sd := range a.chain {
		rid := sd.Rebase(id)
		if _, ok := sd.FindDifferentialElement(rid); ok {
			return true
		}
		if _, ok := sd.FindElement(rid); ok {
			return true
		}
	}
	return false
}

// Known reports whether the element or, for slices, its unsliced element
// exists in an ancestor.
func (a *Ancestry) Known(id string) bool {
	return a.HasElement(id) || a.HasElement(fhirtypes.UnslicedID(id))
}

// Lookup returns the inherited value of a top-level element attribute.
// Each ancestor is consulted differential first, then snapshot, nearest
// ancestor first. When no ancestor defines the element itself, the
// unsliced element is used. Attributes are resolved independently.
func (a *Ancestry) Lookup(id, key string) (any, bool) {
	if v, ok := a.lookup(id, key); ok {
		return v, true
	}
	if a.HasElement(id) {
		return nil, false
	}
	if unsliced := fhirtypes.UnslicedID(id); unsliced != id {
		return a.lookup(unsliced, key)
	}
	return nil, false
}

func (a *Ancestry) lookup(id, key string) (any, bool) {
	for _, sd := range a.chain {
		rid := sd.Rebase(id)
		if ed, ok := sd.FindDifferentialElement(rid); ok {
			if v, ok := ed.Get(key); ok {
				return v, true
			}
		}
		if ed, ok := sd.FindElement(rid); ok {
			if v, ok := ed.Get(key); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Mapping returns the parent's definition-level mapping with identity.
func (a *Ancestry) Mapping(identity string) (fhirtypes.DefinitionMapping, bool) {
	if p := a.Parent(); p != nil {
		for _, m := range p.Mappings {
			if m.Identity == identity {
				return m, true
			}
		}
	}
	return fhirtypes.DefinitionMapping{}, false
}
