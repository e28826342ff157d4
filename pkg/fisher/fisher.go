// Package fisher provides the master resolver: local definitions first,
// then the external definition provider.
package fisher

import (
	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/cache"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// DefaultCacheSize is the number of parsed StructureDefinitions kept.
const DefaultCacheSize = 500

// MasterFisher composes a local store and an external provider. A local
// definition shadows an external one with the same name, id or url.
type MasterFisher struct {
	local    fhirtypes.Fishable
	external fhirtypes.Fishable

	sds     *cache.Cache[string, *fhirtypes.StructureDefinition]
	metrics *gofsh.Metrics
}

// Option configures a MasterFisher.
type Option func(*MasterFisher)

// WithCacheSize sets the parsed StructureDefinition cache capacity.
func WithCacheSize(n int) Option {
	return func(f *MasterFisher) {
		if n > 0 {
			f.sds = cache.New[string, *fhirtypes.StructureDefinition](n)
		}
	}
}

// WithMetrics records cache hits and misses on m.
func WithMetrics(m *gofsh.Metrics) Option {
	return func(f *MasterFisher) {
		f.metrics = m
	}
}

// New creates a MasterFisher. Either backend may be nil.
func New(local, external fhirtypes.Fishable, opts ...Option) *MasterFisher {
	f := &MasterFisher{
		local:    local,
		external: external,
		sds:      cache.New[string, *fhirtypes.StructureDefinition](DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *MasterFisher) backends() []fhirtypes.Fishable {
	out := make([]fhirtypes.Fishable, 0, 2)
	for _, b := range []fhirtypes.Fishable{f.local, f.external} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// FishForFHIR resolves item locally, then externally.
func (f *MasterFisher) FishForFHIR(item string, types ...fhirtypes.FishType) (map[string]any, bool) {
	for _, b := range f.backends() {
		if doc, ok := b.FishForFHIR(item, types...); ok {
			return doc, true
		}
	}
	return nil, false
}

// FishForMetadata resolves item locally, then externally.
func (f *MasterFisher) FishForMetadata(item string, types ...fhirtypes.FishType) (fhirtypes.Metadata, bool) {
	for _, b := range f.backends() {
		if meta, ok := b.FishForMetadata(item, types...); ok {
			return meta, true
		}
	}
	return fhirtypes.Metadata{}, false
}

// FishForStructureDefinition resolves item to a parsed StructureDefinition
// with a snapshot. Parsed results, including failures, are memoized.
func (f *MasterFisher) FishForStructureDefinition(item string) (*fhirtypes.StructureDefinition, bool) {
	for _, b := range f.backends() {
		meta, ok := b.FishForMetadata(item, fhirtypes.StructureDefinitionTypes...)
		if !ok {
			continue
		}
		key := meta.URL
		if key == "" {
			key = meta.ResourceType + "/" + meta.ID
		}
		if sd, hit := f.sds.Get(key); hit {
			f.record(true)
			return sd, sd != nil
		}
		f.record(false)

		var sd *fhirtypes.StructureDefinition
		if doc, ok := b.FishForFHIR(item, fhirtypes.StructureDefinitionTypes...); ok {
			if parsed, err := fhirtypes.NewStructureDefinition(doc, true); err == nil {
				sd = parsed
			}
		}
		f.sds.Set(key, sd)
		return sd, sd != nil
	}
	return nil, false
}

func (f *MasterFisher) record(hit bool) {
	if f.metrics == nil {
		return
	}
	if hit {
		f.metrics.RecordCacheHit()
	} else {
		f.metrics.RecordCacheMiss()
	}
}

var _ fhirtypes.Resolver = (*MasterFisher)(nil)
