package fisher

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/lake"
	"github.com/gofhir/gofsh/pkg/logger"
	"github.com/gofhir/gofsh/pkg/registry"
)

const externalObservation = `{
	"resourceType": "StructureDefinition", "id": "Observation", "name": "Observation",
	"url": "http://hl7.org/fhir/StructureDefinition/Observation",
	"kind": "resource", "type": "Observation", "derivation": "specialization",
	"snapshot": {"element": [{"id": "Observation", "path": "Observation"}, {"id": "Observation.status", "path": "Observation.status", "min": 1}]}
}`

func newFisher(t *testing.T) (*MasterFisher, *lake.Lake, *gofsh.Metrics) {
	t.Helper()
	reg := registry.New()
	require.True(t, reg.Add(json.RawMessage(externalObservation), "core"))
	require.True(t, reg.Add(json.RawMessage(`{
		"resourceType": "StructureDefinition", "id": "no-snapshot", "name": "NoSnapshot",
		"url": "http://example.org/no-snapshot", "kind": "resource", "type": "Observation", "derivation": "constraint"
	}`), "dep"))

	lk := lake.New(gofsh.NewResultWithLogger(logger.New(io.Discard, logger.LevelNone)))
	metrics := gofsh.NewMetrics()
	return New(lk, reg, WithCacheSize(10), WithMetrics(metrics)), lk, metrics
}

func TestMasterFisher_LocalShadowsExternal(t *testing.T) {
	f, lk, _ := newFisher(t)

	meta, ok := f.FishForMetadata("Observation")
	require.True(t, ok)
	assert.Equal(t, "Observation", meta.SDType)

	lk.AddContent(map[string]any{
		"resourceType": "StructureDefinition",
		"id":           "Observation",
		"name":         "LocalObservation",
		"url":          "http://hl7.org/fhir/StructureDefinition/Observation",
		"kind":         "resource",
		"type":         "Observation",
		"derivation":   "constraint",
	}, "local.json")

	meta, ok = f.FishForMetadata("http://hl7.org/fhir/StructureDefinition/Observation")
	require.True(t, ok)
	assert.Equal(t, "LocalObservation", meta.Name)
}

func TestMasterFisher_FishForStructureDefinition(t *testing.T) {
	f, _, metrics := newFisher(t)

	sd, ok := f.FishForStructureDefinition("Observation")
	require.True(t, ok)
	ed, ok := sd.FindElement("Observation.status")
	require.True(t, ok)
	assert.Equal(t, "status", ed.FSHPath())

	again, ok := f.FishForStructureDefinition("http://hl7.org/fhir/StructureDefinition/Observation")
	require.True(t, ok)
	assert.Same(t, sd, again, "parsed definitions are memoized")
	assert.InDelta(t, 0.5, metrics.CacheHitRate(), 0.001)

	_, ok = f.FishForStructureDefinition("NoSnapshot")
	assert.False(t, ok, "definitions without a snapshot are not found")

	_, ok = f.FishForStructureDefinition("Unknown")
	assert.False(t, ok)
}

func TestMasterFisher_NilBackends(t *testing.T) {
	f := New(nil, nil)
	_, ok := f.FishForFHIR("Observation")
	assert.False(t, ok)
	_, ok = f.FishForMetadata("Observation", fhirtypes.FishResource)
	assert.False(t, ok)
}
