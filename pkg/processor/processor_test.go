package processor

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fisher"
	"github.com/gofhir/gofsh/pkg/fshtypes"
	"github.com/gofhir/gofsh/pkg/lake"
	"github.com/gofhir/gofsh/pkg/logger"
	"github.com/gofhir/gofsh/pkg/registry"
)

const patientSD = `{
  "resourceType": "StructureDefinition",
  "id": "Patient",
  "url": "http://hl7.org/fhir/StructureDefinition/Patient",
  "name": "Patient",
  "kind": "resource",
  "type": "Patient",
  "derivation": "specialization",
  "snapshot": {"element": [
    {"id": "Patient", "path": "Patient", "min": 0, "max": "*"},
    {"id": "Patient.gender", "path": "Patient.gender", "min": 0, "max": "1", "type": [{"code": "code"}]},
    {"id": "Patient.birthDate", "path": "Patient.birthDate", "min": 0, "max": "1", "type": [{"code": "date"}]},
    {"id": "Patient.name", "path": "Patient.name", "min": 0, "max": "*", "type": [{"code": "HumanName"}]}
  ]}
}`

type fixture struct {
	lake   *lake.Lake
	result *gofsh.Result
	fisher *fisher.MasterFisher
}

func newFixture(t *testing.T, docs ...string) *fixture {
	t.Helper()
	result := gofsh.NewResultWithLogger(logger.New(io.Discard, logger.LevelNone))
	l := lake.New(result)
	for i, d := range docs {
		content, err := fhirtypes.Decode([]byte(d))
		require.NoError(t, err)
		l.AddContent(content, "input-"+string(rune('a'+i))+".json")
	}
	l.Cleanup()

	reg := registry.New()
	require.True(t, reg.Add([]byte(patientSD), "hl7.fhir.r4.core#4.0.1"))
	return &fixture{lake: l, result: result, fisher: fisher.New(l, reg)}
}

func (f *fixture) extract() *exportable.Package {
	return Extract(f.lake, f.fisher, gofsh.DefaultOptions(), f.result)
}

func render(rules []exportable.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.FSH()
	}
	return out
}

func TestProfile(t *testing.T) {
	f := newFixture(t, `{
  "resourceType": "StructureDefinition",
  "id": "my-patient",
  "url": "http://example.org/StructureDefinition/my-patient",
  "name": "MyPatient",
  "title": "My Patient",
  "status": "active",
  "kind": "resource",
  "abstract": false,
  "type": "Patient",
  "derivation": "constraint",
  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/Patient",
  "mapping": [{"identity": "rim", "uri": "http://hl7.org/v3", "name": "RIM"}],
  "differential": {"element": [
    {"id": "Patient.name", "path": "Patient.name", "min": 1, "mapping": [{"identity": "rim", "map": "name"}]}
  ]}
}`)

	pkg := f.extract()
	require.Len(t, pkg.Profiles, 1)
	p := pkg.Profiles[0]
	assert.Equal(t, "MyPatient", p.Name)
	assert.Equal(t, "my-patient", p.ID)
	assert.Equal(t, "http://hl7.org/fhir/StructureDefinition/Patient", p.Parent)
	assert.Equal(t, []string{
		"* ^status = #active",
		`* ^url = "http://example.org/StructureDefinition/my-patient"`,
		"* name 1..",
	}, render(p.Rules))

	require.Len(t, pkg.Mappings, 1)
	assert.Equal(t, "rim", pkg.Mappings[0].Name)
	assert.Equal(t, "MyPatient", pkg.Mappings[0].Source)
	require.NotNil(t, pkg.Config)
}

func TestExtensionContexts(t *testing.T) {
	f := newFixture(t, `{
  "resourceType": "StructureDefinition",
  "id": "flavor",
  "url": "http://example.org/StructureDefinition/flavor",
  "name": "Flavor",
  "kind": "complex-type",
  "type": "Extension",
  "derivation": "constraint",
  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/Extension",
  "context": [{"type": "element", "expression": "Patient"}],
  "differential": {"element": [
    {"id": "Extension.value[x]", "path": "Extension.value[x]", "type": [{"code": "string"}]}
  ]}
}`)

	pkg := f.extract()
	require.Len(t, pkg.Extensions, 1)
	ext := pkg.Extensions[0]
	assert.Equal(t, []exportable.Context{{Type: "element", Expression: "Patient"}}, ext.Contexts)
	assert.Contains(t, ext.FSH(), "Context: Patient\n")
	assert.Contains(t, ext.FSH(), "* value[x] only string")
	assert.NotContains(t, ext.FSH(), "^context")
}

func TestValueSetComponents(t *testing.T) {
	f := newFixture(t, `{
  "resourceType": "ValueSet",
  "id": "colors",
  "name": "Colors",
  "status": "draft",
  "compose": {
    "include": [
      {"system": "http://example.org/colors", "concept": [{"code": "red", "display": "Red"}, {"code": "blue"}]},
      {"system": "http://snomed.info/sct", "version": "2024", "filter": [{"property": "concept", "op": "is-a", "value": "123"}]}
    ],
    "exclude": [{"valueSet": ["http://example.org/ValueSet/dark"]}]
  }
}`)

	pkg := f.extract()
	require.Len(t, pkg.ValueSets, 1)
	assert.Equal(t, []string{
		`* include http://example.org/colors#red "Red" and http://example.org/colors#blue`,
		"* include codes from system http://snomed.info/sct where concept is-a #123",
		"* exclude codes from valueset http://example.org/ValueSet/dark",
		`* ^compose.include[1].version = "2024"`,
		"* ^status = #draft",
	}, render(pkg.ValueSets[0].Rules))
}

func TestValueSetConceptsWithoutSystemStayAsCarets(t *testing.T) {
	f := newFixture(t, `{
  "resourceType": "ValueSet",
  "id": "loose",
  "name": "Loose",
  "compose": {
    "include": [{"valueSet": ["http://example.org/ValueSet/base"], "concept": [{"code": "red"}]}]
  }
}`)

	pkg := f.extract()
	require.Len(t, pkg.ValueSets, 1)
	var carets []string
	for _, r := range pkg.ValueSets[0].Rules {
		c, ok := r.(*exportable.CaretValueRule)
		require.True(t, ok, "unexpected rule %s", r.FSH())
		carets = append(carets, c.CaretPath)
	}
	assert.ElementsMatch(t, []string{"compose.include[0].concept[0].code", "compose.include[0].valueSet[0]"}, carets)
}

func TestCodeSystemConcepts(t *testing.T) {
	f := newFixture(t, `{
  "resourceType": "CodeSystem",
  "id": "shapes",
  "name": "Shapes",
  "content": "complete",
  "concept": [
    {"code": "polygon", "display": "Polygon", "concept": [
      {"code": "square", "display": "Square", "designation": [{"language": "fr", "value": "Carré"}]}
    ]},
    {"code": "circle", "definition": "Round"}
  ]
}`)

	pkg := f.extract()
	require.Len(t, pkg.CodeSystems, 1)
	assert.Equal(t, []string{
		"* ^content = #complete",
		`* #polygon "Polygon"`,
		`* #polygon #square "Square"`,
		`* #polygon #square ^designation[0].language = #fr`,
		`* #polygon #square ^designation[0].value = "Carré"`,
		`* #circle "" "Round"`,
	}, render(pkg.CodeSystems[0].Rules))
}

func TestInstances(t *testing.T) {
	f := newFixture(t,
		`{"resourceType": "StructureDefinition", "id": "my-patient", "url": "http://example.org/StructureDefinition/my-patient",
		  "name": "MyPatient", "kind": "resource", "type": "Patient", "derivation": "constraint",
		  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/Patient", "differential": {"element": [{"id": "Patient", "path": "Patient"}]}}`,
		`{"resourceType": "Patient", "id": "pat-1", "meta": {"profile": ["http://example.org/StructureDefinition/my-patient"]},
		  "gender": "female", "birthDate": "1970-13-01"}`,
		`{"resourceType": "SearchParameter", "id": "pat-1", "status": "draft"}`,
	)

	pkg := f.extract()
	require.Len(t, pkg.Instances, 2)

	pat := pkg.Instances[0]
	assert.Equal(t, "pat-1", pat.Name)
	assert.Equal(t, "http://example.org/StructureDefinition/my-patient", pat.InstanceOf)
	assert.Equal(t, "example", pat.Usage)
	assert.Equal(t, []string{`* birthDate = "1970-13-01"`, "* gender = #female"}, render(pat.Rules))
	assert.Equal(t, 1, f.result.WarningCount(), "invalid date must warn")

	sp := pkg.Instances[1]
	assert.Equal(t, "SearchParameter-pat-1", sp.Name)
	assert.Equal(t, "pat-1", sp.ID)
	assert.Equal(t, "SearchParameter", sp.InstanceOf)
	assert.Equal(t, "definition", sp.Usage)
}

func TestProcessConfig(t *testing.T) {
	f := newFixture(t, `{
  "resourceType": "ImplementationGuide",
  "id": "my-ig",
  "url": "http://example.org/fhir/ImplementationGuide/my-ig",
  "packageId": "example.fhir.my-ig",
  "name": "MyIG",
  "status": "active",
  "version": "1.0.0",
  "fhirVersion": ["4.0.1"],
  "publisher": "Example Org",
  "contact": [{"telecom": [{"system": "url", "value": "http://example.org"}]}],
  "dependsOn": [{"packageId": "hl7.fhir.us.core", "version": "6.1.0"}]
}`)

	cfg := ProcessConfig(f.lake, []string{"hl7.fhir.uv.ips@1.1.0", "hl7.fhir.r4.core#4.0.1"}, gofsh.DefaultOptions())
	assert.Equal(t, "example.fhir.my-ig", cfg.ID)
	assert.Equal(t, "http://example.org/fhir", cfg.Canonical)
	assert.Equal(t, "4.0.1", cfg.FHIRVersion)
	require.NotNil(t, cfg.Publisher)
	assert.Equal(t, "http://example.org", cfg.Publisher.URL)
	assert.Equal(t, map[string]string{"hl7.fhir.us.core": "6.1.0", "hl7.fhir.uv.ips": "1.1.0"}, cfg.Dependencies)

	override := ProcessConfig(f.lake, nil, gofsh.Apply(gofsh.WithCanonical("http://other.org")))
	assert.Equal(t, "http://other.org", override.Canonical)

	pkg := f.extract()
	assert.Empty(t, pkg.Instances, "the ImplementationGuide feeds the configuration")
}

func TestDefaultConfig(t *testing.T) {
	f := newFixture(t)
	cfg := ProcessConfig(f.lake, nil, nil)
	assert.Equal(t, DefaultCanonical, cfg.Canonical)
	assert.Equal(t, "4.0.1", cfg.FHIRVersion)
	assert.True(t, cfg.FSHOnly)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "canonical: http://example.org\n"))
}

func TestFilterValue(t *testing.T) {
	assert.Equal(t, true, filterValue("inactive", "exists", "true"))
	assert.Equal(t, "^A.*", filterValue("display", "regex", "^A.*"))
	assert.Equal(t, "x", filterValue("display", "=", "x"))
	assert.Equal(t, fshtypes.Code{Code: "1"}, filterValue("concept", "descendent-of", "1"))
}
