// Package registry is the external definition provider: a lookup-only index
// of the StructureDefinitions, ValueSets and CodeSystems shipped in FHIR
// packages (core and dependencies).
package registry

import (
	"encoding/json"
	"sync"

	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/loader"
	"github.com/gofhir/gofsh/pkg/logger"
)

// definitionHeader is a lightweight view decoded while indexing, so full
// documents are only decoded when they are fished.
type definitionHeader struct {
	ResourceType   string `json:"resourceType"`
	ID             string `json:"id"`
	URL            string `json:"url"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Abstract       bool   `json:"abstract"`
	Type           string `json:"type"`
	BaseDefinition string `json:"baseDefinition"`
	Derivation     string `json:"derivation"`
}

func (h *definitionHeader) fishType() (fhirtypes.FishType, bool) {
	switch h.ResourceType {
	case "StructureDefinition":
		return fhirtypes.Classify(map[string]any{
			"resourceType": h.ResourceType,
			"kind":         h.Kind,
			"type":         h.Type,
			"derivation":   h.Derivation,
		}), true
	case "ValueSet":
		return fhirtypes.FishValueSet, true
	case "CodeSystem":
		return fhirtypes.FishCodeSystem, true
	}
	return "", false
}

type entry struct {
	meta   fhirtypes.Metadata
	raw    json.RawMessage
	source string
}

// Registry holds definitions indexed by id, name and canonical url. The
// first definition registered under a key wins.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	lookup  map[string][]*entry
	byURL   map[string]*entry
}

// New creates a new empty Registry.
func New() *Registry {
	return &Registry{
		lookup: make(map[string][]*entry),
		byURL:  make(map[string]*entry),
	}
}

// LoadFromPackages indexes the definitions of packages in order.
func (r *Registry) LoadFromPackages(packages []*loader.Package) int {
	added := 0
	for _, pkg := range packages {
		source := pkg.Ref().String()
		for _, res := range pkg.Resources {
			if r.Add(res.Data, source) {
				added++
			}
		}
	}
	return added
}

// Add indexes one raw resource. Resources other than StructureDefinition,
// ValueSet and CodeSystem are ignored.
func (r *Registry) Add(data json.RawMessage, source string) bool {
	var h definitionHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return false
	}
	ft, ok := h.fishType()
	if !ok {
		return false
	}

	e := &entry{
		meta: fhirtypes.Metadata{
			ID:           h.ID,
			Name:         h.Name,
			URL:          h.URL,
			SDType:       h.Type,
			Parent:       h.BaseDefinition,
			ResourceType: h.ResourceType,
			Kind:         h.Kind,
			Abstract:     h.Abstract,
			FishType:     ft,
		},
		raw:    data,
		source: source,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h.URL != "" {
		if prev, exists := r.byURL[h.URL]; exists {
			logger.Debug("registry: %s from %s is shadowed by %s", h.URL, source, prev.source)
			return false
		}
		r.byURL[h.URL] = e
	}
	r.entries = append(r.entries, e)
	seen := make(map[string]bool, 3)
	for _, k := range []string{h.ID, h.Name, h.URL} {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		r.lookup[k] = append(r.lookup[k], e)
	}
	return true
}

// FishForFHIR resolves item and decodes the matching definition.
func (r *Registry) FishForFHIR(item string, types ...fhirtypes.FishType) (map[string]any, bool) {
	e, ok := r.fish(item, types)
	if !ok {
		return nil, false
	}
	doc, err := fhirtypes.Decode(e.raw)
	if err != nil {
		return nil, false
	}
	return doc, true
}

// FishForMetadata resolves item without decoding the full definition.
func (r *Registry) FishForMetadata(item string, types ...fhirtypes.FishType) (fhirtypes.Metadata, bool) {
	e, ok := r.fish(item, types)
	if !ok {
		return fhirtypes.Metadata{}, false
	}
	return e.meta, true
}

func (r *Registry) fish(item string, types []fhirtypes.FishType) (*entry, bool) {
	if item == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.lookup[fhirtypes.StripVersion(item)] {
		if fhirtypes.MatchesType(e.meta.FishType, types) {
			return e, true
		}
	}
	return nil, false
}

// Count returns the number of indexed definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
