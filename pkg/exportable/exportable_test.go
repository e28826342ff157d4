package exportable

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/gofsh/pkg/fshtypes"
)

func TestRuleFSH(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{"card", &CardRule{Path: "subject", Min: 1, HasMin: true, Max: "1"}, "* subject 1..1"},
		{"card max only", &CardRule{Path: "note", Max: "0"}, "* note ..0"},
		{"flags", &FlagRule{Path: "code", MustSupport: true, Summary: true}, "* code MS SU"},
		{
			"card and flags",
			&CombinedCardFlagRule{
				Card:  &CardRule{Path: "code", Min: 1, HasMin: true, Max: "1"},
				Flags: &FlagRule{Path: "code", MustSupport: true},
			},
			"* code 1..1 MS",
		},
		{"binding", &BindingRule{Path: "code", ValueSet: "MyVS", Strength: "required"}, "* code from MyVS (required)"},
		{
			"assignment",
			&AssignmentRule{Path: "code", Value: fshtypes.Code{Code: "1234-5", System: "$loinc"}},
			"* code = $loinc#1234-5",
		},
		{"assignment exactly", &AssignmentRule{Path: "status", Value: fshtypes.Code{Code: "final"}, Exactly: true}, "* status = #final (exactly)"},
		{"obeys", &ObeysRule{Path: "", Keys: []string{"inv-1", "inv-2"}}, "* obeys inv-1 and inv-2"},
		{
			"only references",
			&OnlyRule{Path: "subject", Types: []OnlyType{{Type: "Patient", IsReference: true}, {Type: "Group", IsReference: true}}},
			"* subject only Reference(Patient or Group)",
		},
		{"caret on entity", &CaretValueRule{CaretPath: "status", Value: fshtypes.Code{Code: "draft"}}, "* ^status = #draft"},
		{"caret on element", &CaretValueRule{Path: "code", CaretPath: "short", Value: "A code"}, `* code ^short = "A code"`},
		{"mapping", &MappingRule{Path: "code", Map: "OBX-3"}, `* code -> "OBX-3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.FSH())
		})
	}
}

func TestContainsRuleFSH(t *testing.T) {
	rule := &ContainsRule{
		Path: "extension",
		Items: []ContainsItem{
			{Name: "race", Type: "USCoreRace", Card: &CardRule{Min: 0, HasMin: true, Max: "1"}, Flags: &FlagRule{MustSupport: true}},
			{Name: "birthsex", Card: &CardRule{Min: 0, HasMin: true, Max: "1"}},
		},
	}
	assert.Equal(t, "* extension contains USCoreRace named race 0..1 MS and birthsex 0..1", rule.FSH())

	rule.Indent = true
	assert.Equal(t, "* extension contains\n    USCoreRace named race 0..1 MS and\n    birthsex 0..1", rule.FSH())
}

func TestQuantityAssignment(t *testing.T) {
	rule := &AssignmentRule{
		Path: "valueQuantity",
		Value: fshtypes.Quantity{
			Value: json.Number("1.21"),
			Unit:  &fshtypes.Code{Code: "GW", System: fshtypes.UCUM, Display: "Gigawatt"},
		},
	}
	assert.Equal(t, `* valueQuantity = 1.21 'GW' "Gigawatt"`, rule.FSH())
}

func TestAliasFor(t *testing.T) {
	pkg := NewPackage()

	assert.Equal(t, "$loinc", pkg.AliasFor("http://loinc.org"))
	assert.Equal(t, "$loinc", pkg.AliasFor("http://loinc.org"), "same url must reuse its alias")
	assert.Equal(t, "$sct", pkg.AliasFor("http://snomed.info/sct"))
	assert.Equal(t, "$loinc-2", pkg.AliasFor("http://example.org/fhir/loinc"))
	assert.Equal(t, "$loinc", pkg.AliasFor("http://loinc.org"))
	assert.Len(t, pkg.Aliases, 3)
}

func TestAliasForDerivation(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://loinc.org", "$loinc"},
		{"http://www.ama-assn.org", "$ama-assn"},
		{"http://terminology.hl7.org/CodeSystem/v3-ActCode", "$v3-ActCode"},
		{"http://hl7.org/fhir/ValueSet/observation-status|4.0.1", "$observation-status"},
		{"urn:ietf:bcp:47", "$47"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPackage().AliasFor(tt.url))
		})
	}
}

func TestPackageAdd(t *testing.T) {
	pkg := NewPackage()
	pkg.Add(&Profile{Metadata: Metadata{Name: "MyPatient"}, Parent: "Patient"})
	pkg.Add(&ValueSet{Metadata: Metadata{Name: "MyVS"}})
	pkg.Add(&Alias{Alias: "$sct", URL: "http://snomed.info/sct"})
	pkg.Add(&Alias{Alias: "$sct", URL: "http://snomed.info/sct"})
	pkg.Add(&Configuration{ID: "my.ig"})

	assert.Len(t, pkg.Profiles, 1)
	assert.Len(t, pkg.ValueSets, 1)
	assert.Len(t, pkg.Aliases, 1)
	assert.Empty(t, pkg.Extensions)
	require.NotNil(t, pkg.Config)
	assert.Len(t, pkg.AllRuleOwners(), 2)
}

func TestEntityFSH(t *testing.T) {
	profile := &Profile{
		Metadata: Metadata{Name: "MyPatient", ID: "my-patient", Title: "My Patient"},
		Parent:   "Patient",
		Rules:    []Rule{&CardRule{Path: "name", Min: 1, HasMin: true, Max: "*"}},
	}
	want := strings.Join([]string{
		"Profile: MyPatient",
		"Parent: Patient",
		"Id: my-patient",
		`Title: "My Patient"`,
		"* name 1..*",
	}, "\n")
	assert.Equal(t, want, profile.FSH())

	ext := &Extension{
		Metadata: Metadata{Name: "Flavor", ID: "flavor"},
		Contexts: []Context{{Type: "element", Expression: "Patient"}, {Type: "fhirpath", Expression: "Observation.code"}},
	}
	assert.Contains(t, ext.FSH(), `Context: Patient, "Observation.code"`)

	inst := &Instance{Metadata: Metadata{Name: "pat-1", ID: "pat-1"}, InstanceOf: "Patient", Usage: "example"}
	assert.Equal(t, "Instance: pat-1\nInstanceOf: Patient\nUsage: #example", inst.FSH())
}

func TestFiles(t *testing.T) {
	pkg := NewPackage()
	pkg.AliasFor("http://loinc.org")
	pkg.Add(&Profile{Metadata: Metadata{Name: "A"}, Parent: "Patient"})
	pkg.Add(&Profile{Metadata: Metadata{Name: "B"}, Parent: "Patient"})

	files := pkg.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "aliases.fsh", files[0].Name)
	assert.Equal(t, "Alias: $loinc = http://loinc.org\n", files[0].Content)
	assert.Equal(t, "profiles.fsh", files[1].Name)
	assert.Equal(t, "Profile: A\nParent: Patient\n\nProfile: B\nParent: Patient\n", files[1].Content)
}

func TestConfigurationYAML(t *testing.T) {
	cfg := &Configuration{
		ID:           "my.ig",
		Canonical:    "http://example.org/fhir",
		FHIRVersion:  "4.0.1",
		Dependencies: map[string]string{"hl7.fhir.us.core": "6.1.0"},
		FSHOnly:      true,
	}
	out, err := cfg.YAML()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "id: my.ig\n")
	assert.Contains(t, text, "canonical: http://example.org/fhir\n")
	assert.Contains(t, text, "dependencies:\n  hl7.fhir.us.core: 6.1.0\n")
	assert.Contains(t, text, "FSHOnly: true\n")
	assert.NotContains(t, text, "publisher")
}
