package plugins

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/optimizer"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// stubFisher resolves against a fixed list; the first match wins.
type stubFisher struct {
	defs []fhirtypes.Metadata
}

func (s *stubFisher) FishForFHIR(string, ...fhirtypes.FishType) (map[string]any, bool) {
	return nil, false
}

func (s *stubFisher) FishForMetadata(item string, types ...fhirtypes.FishType) (fhirtypes.Metadata, bool) {
	for _, m := range s.defs {
		if (m.URL == item || m.Name == item || m.ID == item) && fhirtypes.MatchesType(m.FishType, types) {
			return m, true
		}
	}
	return fhirtypes.Metadata{}, false
}

func newStubFisher() *stubFisher {
	return &stubFisher{defs: []fhirtypes.Metadata{
		{Name: "Observation", ID: "Observation", URL: "http://hl7.org/fhir/StructureDefinition/Observation", FishType: fhirtypes.FishResource},
		{Name: "MyProfile", ID: "my-profile", URL: "http://example.org/StructureDefinition/my-profile", FishType: fhirtypes.FishProfile},
		{Name: "MyExtension", ID: "my-ext", URL: "http://example.org/StructureDefinition/my-ext", FishType: fhirtypes.FishExtension},
		{Name: "MyVS", ID: "my-vs", URL: "http://example.org/ValueSet/my-vs", FishType: fhirtypes.FishValueSet},
		{Name: "Shadow", ID: "local", URL: "http://example.org/ValueSet/local", FishType: fhirtypes.FishValueSet},
		{Name: "Shadow", ID: "remote", URL: "http://other.org/ValueSet/remote", FishType: fhirtypes.FishValueSet},
		{Name: "MyCS", ID: "my-cs", URL: "http://example.org/CodeSystem/my-cs", FishType: fhirtypes.FishCodeSystem},
	}}
}

func fsh(rules []exportable.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.FSH()
	}
	return out
}

func instanceWith(rules ...exportable.Rule) (*exportable.Package, *exportable.Instance) {
	pkg := exportable.NewPackage()
	inst := &exportable.Instance{Metadata: exportable.Metadata{Name: "example"}, InstanceOf: "Observation", Rules: rules}
	pkg.Add(inst)
	return pkg, inst
}

func profileWith(rules ...exportable.Rule) (*exportable.Package, *exportable.Profile) {
	pkg := exportable.NewPackage()
	p := &exportable.Profile{Metadata: exportable.Metadata{Name: "MyProfile", ID: "my-profile"}, Parent: "Observation", Rules: rules}
	pkg.Add(p)
	return pkg, p
}

func assign(path string, value any) *exportable.AssignmentRule {
	return &exportable.AssignmentRule{Path: path, Value: value, IsInstance: true}
}

func caret(path, caretPath string, value any) *exportable.CaretValueRule {
	return &exportable.CaretValueRule{Path: path, CaretPath: caretPath, Value: value}
}

func TestAll_OrderIsValid(t *testing.T) {
	ordered, err := optimizer.Order(All(), gofsh.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ordered, 15)

	position := make(map[string]int)
	for i, p := range ordered {
		position[p.Name()] = i
	}
	assert.Less(t, position[CombineCodingAndQuantityValues], position[SimplifyCodeableConceptCodings])
	assert.Less(t, position[CombineCodingAndQuantityValues], position[ResolveValueRuleURLs])
	assert.Less(t, position[CombineContainsRules], position[ResolveContainsRuleURLs])
}

func TestAll_KeepGeneratedDatesDisablesPass(t *testing.T) {
	opts := gofsh.Apply(gofsh.WithKeepGeneratedDates(true))
	ordered, err := optimizer.Order(All(), opts)
	require.NoError(t, err)
	for _, p := range ordered {
		assert.NotEqual(t, RemoveGeneratedDates, p.Name())
	}
}

func TestCombineCodingAndQuantityValues(t *testing.T) {
	tests := []struct {
		name  string
		rules []exportable.Rule
		want  []string
	}{
		{
			name: "ucum quantity",
			rules: []exportable.Rule{
				assign("valueQuantity.value", json.Number("1.21")),
				assign("valueQuantity.system", fshtypes.UCUM),
				assign("valueQuantity.code", fshtypes.Code{Code: "GW"}),
			},
			want: []string{"* valueQuantity = 1.21 'GW'"},
		},
		{
			name: "ucum quantity with unit",
			rules: []exportable.Rule{
				assign("valueQuantity.value", json.Number("5")),
				assign("valueQuantity.unit", "milligram"),
				assign("valueQuantity.code", fshtypes.Code{Code: "mg"}),
				assign("valueQuantity.system", fshtypes.UCUM),
			},
			want: []string{`* valueQuantity = 5 'mg' "milligram"`},
		},
		{
			name: "coding",
			rules: []exportable.Rule{
				assign("code.coding[0].system", "http://loinc.org"),
				assign("code.coding[0].code", fshtypes.Code{Code: "1234-5"}),
				assign("code.coding[0].display", "Some test"),
				assign("status", fshtypes.Code{Code: "final"}),
			},
			want: []string{
				`* code.coding[0] = http://loinc.org#1234-5 "Some test"`,
				"* status = #final",
			},
		},
		{
			name: "non ucum system keeps value",
			rules: []exportable.Rule{
				assign("valueQuantity.value", json.Number("2")),
				assign("valueQuantity.system", "http://example.org/units"),
				assign("valueQuantity.code", fshtypes.Code{Code: "box"}),
			},
			want: []string{
				"* valueQuantity.value = 2",
				"* valueQuantity = http://example.org/units#box",
			},
		},
		{
			name: "unit without system",
			rules: []exportable.Rule{
				assign("valueQuantity.code", fshtypes.Code{Code: "mg"}),
				assign("valueQuantity.unit", "mg"),
			},
			want: []string{`* valueQuantity = #mg "mg"`},
		},
		{
			name: "no code",
			rules: []exportable.Rule{
				assign("identifier.system", "http://example.org/ids"),
				assign("identifier.value", "123"),
			},
			want: []string{
				`* identifier.system = "http://example.org/ids"`,
				`* identifier.value = "123"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, inst := instanceWith(tt.rules...)
			require.NoError(t, combineCodingAndQuantityValues(pkg, nil, gofsh.DefaultOptions()))
			assert.Equal(t, tt.want, fsh(inst.Rules))

			require.NoError(t, combineCodingAndQuantityValues(pkg, nil, gofsh.DefaultOptions()))
			assert.Equal(t, tt.want, fsh(inst.Rules), "second run changes nothing")
		})
	}
}

func TestCombineCodingValues_Caret(t *testing.T) {
	pkg, p := profileWith(
		caret("code", "code.coding[0].system", "http://loinc.org"),
		caret("code", "code.coding[0].code", fshtypes.Code{Code: "1234-5"}),
	)
	require.NoError(t, combineCodingAndQuantityValues(pkg, nil, gofsh.DefaultOptions()))
	assert.Equal(t, []string{"* code ^code.coding[0] = http://loinc.org#1234-5"}, fsh(p.Rules))
}

func TestSimplifyCodeableConceptCodings(t *testing.T) {
	code := fshtypes.Code{Code: "1234-5", System: "http://loinc.org"}

	pkg, inst := instanceWith(assign("code.coding[0]", code))
	require.NoError(t, simplifyCodeableConceptCodings(pkg, nil, gofsh.DefaultOptions()))
	assert.Equal(t, []string{"* code = http://loinc.org#1234-5"}, fsh(inst.Rules))

	pkg, inst = instanceWith(
		assign("code.coding[0]", code),
		assign("code.coding[0].version", "2.7"),
	)
	require.NoError(t, simplifyCodeableConceptCodings(pkg, nil, gofsh.DefaultOptions()))
	assert.Equal(t, "* code.coding[0] = http://loinc.org#1234-5", inst.Rules[0].FSH())
}

func TestCombineContainsRules(t *testing.T) {
	pkg, p := profileWith(
		&exportable.ContainsRule{Path: "extension", Items: []exportable.ContainsItem{
			{Name: "a", Type: "http://example.org/StructureDefinition/a", Card: &exportable.CardRule{Max: "1"}},
		}},
		&exportable.CardRule{Path: "status", Min: 1, HasMin: true, Max: "1"},
		&exportable.ContainsRule{Path: "extension", Items: []exportable.ContainsItem{
			{Name: "a", Card: &exportable.CardRule{Min: 1, HasMin: true}, Flags: &exportable.FlagRule{MustSupport: true}},
			{Name: "b", Card: &exportable.CardRule{Min: 0, HasMin: true, Max: "*"}},
		}},
	)

	require.NoError(t, combineContainsRules(pkg, nil, gofsh.DefaultOptions()))
	require.Len(t, p.Rules, 2)
	contains := p.Rules[0].(*exportable.ContainsRule)
	assert.Equal(t, "* extension contains http://example.org/StructureDefinition/a named a 1..1 MS and b 0..*", contains.FSH())

	require.NoError(t, combineContainsRules(pkg, nil, gofsh.DefaultOptions()))
	assert.Len(t, p.Rules, 2)
}

func TestCombineCardAndFlagRules(t *testing.T) {
	pkg, p := profileWith(
		&exportable.CardRule{Path: "subject", Min: 1, HasMin: true, Max: "1"},
		&exportable.OnlyRule{Path: "code", Types: []exportable.OnlyType{{Type: "CodeableConcept"}}},
		&exportable.FlagRule{Path: "subject", MustSupport: true},
		&exportable.CardRule{Path: "note", Max: "0"},
		&exportable.BindingRule{Path: "note", ValueSet: "X", Strength: "example"},
		&exportable.FlagRule{Path: "note", Summary: true},
	)

	require.NoError(t, combineCardAndFlagRules(pkg, nil, gofsh.DefaultOptions()))
	assert.Equal(t, []string{
		"* subject 1..1 MS",
		"* code only CodeableConcept",
		"* note ..0",
		"* note from X (example)",
		"* note SU",
	}, fsh(p.Rules))
}

func extensionSlicingRules() []exportable.Rule {
	return []exportable.Rule{
		caret("extension", "slicing.discriminator[0].type", fshtypes.Code{Code: "value"}),
		caret("extension", "slicing.discriminator[0].path", "url"),
		caret("extension", "slicing.ordered", false),
		caret("extension", "slicing.rules", fshtypes.Code{Code: "open"}),
	}
}

func TestRemoveDefaultSlicingRules(t *testing.T) {
	t.Run("extension slicing in use", func(t *testing.T) {
		rules := append(extensionSlicingRules(), &exportable.ContainsRule{
			Path:  "extension",
			Items: []exportable.ContainsItem{{Name: "foo", Type: "Foo"}},
		})
		pkg, p := profileWith(rules...)
		require.NoError(t, removeDefaultSlicingRules(pkg, nil, gofsh.DefaultOptions()))
		assert.Equal(t, []string{"* extension contains Foo named foo"}, fsh(p.Rules))
	})

	t.Run("choice slicing with concrete assignment", func(t *testing.T) {
		pkg, p := profileWith(
			caret("value[x]", "slicing.discriminator[0].type", fshtypes.Code{Code: "type"}),
			caret("value[x]", "slicing.discriminator[0].path", "$this"),
			caret("value[x]", "slicing.ordered", false),
			caret("value[x]", "slicing.rules", fshtypes.Code{Code: "open"}),
			&exportable.AssignmentRule{Path: "valueString", Value: "fixed"},
		)
		require.NoError(t, removeDefaultSlicingRules(pkg, nil, gofsh.DefaultOptions()))
		assert.Equal(t, []string{`* valueString = "fixed"`}, fsh(p.Rules))
	})

	t.Run("no sibling keeps all four", func(t *testing.T) {
		pkg, p := profileWith(extensionSlicingRules()...)
		require.NoError(t, removeDefaultSlicingRules(pkg, nil, gofsh.DefaultOptions()))
		assert.Len(t, p.Rules, 4)
	})

	t.Run("non default value keeps all", func(t *testing.T) {
		rules := extensionSlicingRules()
		rules[3] = caret("extension", "slicing.rules", fshtypes.Code{Code: "closed"})
		rules = append(rules, &exportable.ContainsRule{Path: "extension", Items: []exportable.ContainsItem{{Name: "foo"}}})
		pkg, p := profileWith(rules...)
		require.NoError(t, removeDefaultSlicingRules(pkg, nil, gofsh.DefaultOptions()))
		assert.Len(t, p.Rules, 5)
	})
}

func TestRemoveGeneratedDates(t *testing.T) {
	build := func(a, b string) (*exportable.Package, *exportable.Profile, *exportable.ValueSet) {
		pkg, p := profileWith(caret("", "date", a), caret("", "status", fshtypes.Code{Code: "draft"}))
		vs := &exportable.ValueSet{Metadata: exportable.Metadata{Name: "VS"}, Rules: []exportable.Rule{caret("", "date", b)}}
		pkg.Add(vs)
		pkg.Add(&exportable.CodeSystem{Metadata: exportable.Metadata{Name: "Undated"}})
		return pkg, p, vs
	}

	pkg, p, vs := build("2024-05-01T10:00:00Z", "2024-05-01T10:00:00Z")
	require.NoError(t, removeGeneratedDates(pkg, nil, gofsh.DefaultOptions()))
	assert.Equal(t, []string{"* ^status = #draft"}, fsh(p.Rules))
	assert.Empty(t, vs.Rules)

	pkg, p, vs = build("2024-05-01T10:00:00Z", "2024-05-02T10:00:00Z")
	require.NoError(t, removeGeneratedDates(pkg, nil, gofsh.DefaultOptions()))
	assert.Len(t, p.Rules, 2)
	assert.Len(t, vs.Rules, 1)

	pkg, p, _ = build("2024-05-01", "2024-05-01")
	require.NoError(t, removeGeneratedDates(pkg, nil, gofsh.DefaultOptions()))
	assert.Len(t, p.Rules, 2, "plain dates are authored")

	pkg, p, vs = build("2024-05-01T10:00:00+02:00", "2024-05-01T10:00:00+02:00")
	require.NoError(t, removeGeneratedDates(pkg, nil, gofsh.DefaultOptions()))
	assert.Len(t, p.Rules, 2, "local offsets are authored")
	assert.Len(t, vs.Rules, 1)

	pkg, p, vs = build("2024-05-01T10:00:00+00:00", "2024-05-01T10:00:00+00:00")
	require.NoError(t, removeGeneratedDates(pkg, nil, gofsh.DefaultOptions()))
	assert.Equal(t, []string{"* ^status = #draft"}, fsh(p.Rules))
	assert.Empty(t, vs.Rules)
}

func TestRemoveGeneratedTextRules(t *testing.T) {
	pkg, inst := instanceWith(
		assign("text.status", fshtypes.Code{Code: "generated"}),
		assign("text.div", "<div>generated</div>"),
		assign("contained[0].text.status", fshtypes.Code{Code: "additional"}),
		assign("contained[0].text.div", "<div>mine</div>"),
		assign("status", fshtypes.Code{Code: "final"}),
	)
	require.NoError(t, removeGeneratedTextRules(pkg, nil, gofsh.DefaultOptions()))
	assert.Equal(t, []string{
		"* contained[0].text.status = #additional",
		`* contained[0].text.div = "<div>mine</div>"`,
		"* status = #final",
	}, fsh(inst.Rules))

	pkg, p := profileWith(
		caret("", "text.status", fshtypes.Code{Code: "generated"}),
		caret("", "text.div", "<div/>"),
	)
	require.NoError(t, removeGeneratedTextRules(pkg, nil, gofsh.DefaultOptions()))
	assert.Empty(t, p.Rules)
}

func TestRemoveGeneratedURLRules(t *testing.T) {
	pkg, p := profileWith(caret("", "url", "http://example.org/fhir/StructureDefinition/my-profile"))
	vs := &exportable.ValueSet{
		Metadata: exportable.Metadata{Name: "VS", ID: "vs"},
		Rules:    []exportable.Rule{caret("", "url", "http://elsewhere.org/ValueSet/vs")},
	}
	pkg.Add(vs)
	pkg.Config = &exportable.Configuration{Canonical: "http://example.org/fhir/"}

	require.NoError(t, removeGeneratedURLRules(pkg, nil, gofsh.DefaultOptions()))
	assert.Empty(t, p.Rules)
	assert.Len(t, vs.Rules, 1)
}

func TestResolveURLs(t *testing.T) {
	resolver := newStubFisher()
	pkg, p := profileWith(
		&exportable.BindingRule{Path: "code", ValueSet: "http://example.org/ValueSet/my-vs", Strength: "required"},
		&exportable.BindingRule{Path: "category", ValueSet: "http://other.org/ValueSet/remote", Strength: "example"},
		&exportable.BindingRule{Path: "method", ValueSet: "http://example.org/ValueSet/my-vs|1.0", Strength: "example"},
		&exportable.OnlyRule{Path: "hasMember", Types: []exportable.OnlyType{
			{Type: "http://example.org/StructureDefinition/my-profile", IsReference: true},
			{Type: "http://unknown.org/StructureDefinition/x", IsReference: true},
		}},
		&exportable.ContainsRule{Path: "extension", Items: []exportable.ContainsItem{
			{Name: "mine", Type: "http://example.org/StructureDefinition/my-ext"},
			{Name: "theirs", Type: "http://unknown.org/StructureDefinition/theirs"},
		}},
		&exportable.AssignmentRule{Path: "code", Value: fshtypes.Code{Code: "a", System: "http://example.org/CodeSystem/my-cs"}},
		&exportable.CaretValueRule{CaretPath: "extension[0].valueCanonical", Value: fshtypes.Canonical{EntityName: "http://example.org/ValueSet/my-vs"}},
	)
	p.Parent = "http://hl7.org/fhir/StructureDefinition/Observation"
	pkg.Add(&exportable.Instance{
		Metadata:   exportable.Metadata{Name: "ex"},
		InstanceOf: "http://example.org/StructureDefinition/my-profile",
	})
	pkg.Add(&exportable.ValueSet{Metadata: exportable.Metadata{Name: "VS"}, Rules: []exportable.Rule{
		&exportable.ValueSetFilterComponentRule{Inclusion: true, From: exportable.ValueSetComponentFrom{
			System:    "http://loinc.org",
			ValueSets: []string{"http://example.org/ValueSet/my-vs"},
		}},
	}})

	for _, pass := range All() {
		if pass.Name() == ResolveValueRuleURLs || pass.Name() == ResolveParentURLs ||
			pass.Name() == ResolveInstanceOfURLs || pass.Name() == ResolveBindingRuleURLs ||
			pass.Name() == ResolveOnlyRuleURLs || pass.Name() == ResolveContainsRuleURLs ||
			pass.Name() == ResolveValueSetComponentURLs {
			require.NoError(t, pass.Optimize(pkg, resolver, gofsh.DefaultOptions()))
		}
	}

	assert.Equal(t, "Observation", p.Parent)
	assert.Equal(t, "MyProfile", pkg.Instances[0].InstanceOf)
	assert.Equal(t, []string{
		"* code from MyVS (required)",
		"* category from $remote (example)",
		"* method from http://example.org/ValueSet/my-vs|1.0 (example)",
		"* hasMember only Reference(MyProfile or $x)",
		"* extension contains MyExtension named mine and $theirs named theirs",
		"* code = MyCS#a",
		"* ^extension[0].valueCanonical = Canonical(MyVS)",
	}, fsh(p.Rules))
	assert.Equal(t, "* include codes from system $loinc and valueset MyVS", pkg.ValueSets[0].Rules[0].FSH())
}

func TestResolveURLs_UnknownDefinitionsGetAliases(t *testing.T) {
	logical := &exportable.Logical{
		Metadata: exportable.Metadata{Name: "MyModel", ID: "my-model"},
		Parent:   "http://unknown.org/fhir/StructureDefinition/base-thing",
		Rules: []exportable.Rule{
			&exportable.AddElementRule{Path: "subject", Min: 0, Max: "1", Short: "Subject", Types: []exportable.OnlyType{
				{Type: "http://example.org/StructureDefinition/my-profile"},
				{Type: "http://unknown.org/fhir/StructureDefinition/pat", IsReference: true},
			}},
		},
	}
	tests := []struct {
		name       string
		aliases    bool
		parent     string
		instanceOf string
		types      []string
		reference  string
		canonical  string
	}{
		{
			name:       "aliases on",
			aliases:    true,
			parent:     "$base-thing",
			instanceOf: "$other-prof",
			types:      []string{"MyProfile", "$pat"},
			reference:  "$p1",
			canonical:  "$vs",
		},
		{
			name:       "aliases off",
			parent:     "http://unknown.org/fhir/StructureDefinition/base-thing",
			instanceOf: "http://unknown.org/fhir/StructureDefinition/other-prof",
			types:      []string{"MyProfile", "http://unknown.org/fhir/StructureDefinition/pat"},
			reference:  "http://unknown.org/fhir/Patient/p1",
			canonical:  "http://unknown.org/fhir/ValueSet/vs",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := exportable.NewPackage()
			l := *logical
			l.Rules = []exportable.Rule{cloneAddElement(logical.Rules[0].(*exportable.AddElementRule))}
			pkg.Add(&l)
			inst := &exportable.Instance{
				Metadata:   exportable.Metadata{Name: "ex"},
				InstanceOf: "http://unknown.org/fhir/StructureDefinition/other-prof",
				Rules: []exportable.Rule{
					assign("subject", fshtypes.Reference{Reference: "http://unknown.org/fhir/Patient/p1"}),
					assign("instantiates", fshtypes.Canonical{EntityName: "http://unknown.org/fhir/ValueSet/vs"}),
				},
			}
			pkg.Add(inst)
			opts := gofsh.Apply(gofsh.WithAliasGeneration(tt.aliases))
			resolver := newStubFisher()

			require.NoError(t, resolveParentURLs(pkg, resolver, opts))
			require.NoError(t, resolveInstanceOfURLs(pkg, resolver, opts))
			require.NoError(t, resolveOnlyRuleURLs(pkg, resolver, opts))
			require.NoError(t, resolveValueRuleURLs(pkg, resolver, opts))

			assert.Equal(t, tt.parent, l.Parent)
			assert.Equal(t, tt.instanceOf, inst.InstanceOf)
			added := l.Rules[0].(*exportable.AddElementRule)
			assert.Equal(t, tt.types, []string{added.Types[0].Type, added.Types[1].Type})
			assert.Equal(t, tt.reference, inst.Rules[0].(*exportable.AssignmentRule).Value.(fshtypes.Reference).Reference)
			assert.Equal(t, tt.canonical, inst.Rules[1].(*exportable.AssignmentRule).Value.(fshtypes.Canonical).EntityName)
			if !tt.aliases {
				assert.Empty(t, pkg.Aliases)
			}
		})
	}
}

func cloneAddElement(r *exportable.AddElementRule) *exportable.AddElementRule {
	c := *r
	c.Types = append([]exportable.OnlyType(nil), r.Types...)
	return &c
}

func TestResolveURLs_AliasesDisabled(t *testing.T) {
	pkg, p := profileWith(
		&exportable.BindingRule{Path: "code", ValueSet: "http://other.org/ValueSet/remote", Strength: "example"},
	)
	opts := gofsh.Apply(gofsh.WithAliasGeneration(false))
	require.NoError(t, resolveBindingRuleURLs(pkg, newStubFisher(), opts))
	assert.Equal(t, "* code from http://other.org/ValueSet/remote (example)", p.Rules[0].FSH())
	assert.Empty(t, pkg.Aliases)
}

func TestResolveValueRuleURLs_AliasReuse(t *testing.T) {
	pkg, inst := instanceWith(
		assign("code", fshtypes.Code{Code: "1", System: "http://loinc.org"}),
		assign("component[0].code", fshtypes.Code{Code: "2", System: "http://loinc.org"}),
	)
	require.NoError(t, resolveValueRuleURLs(pkg, nil, gofsh.DefaultOptions()))
	require.NoError(t, resolveValueRuleURLs(pkg, nil, gofsh.DefaultOptions()))

	assert.Equal(t, []string{"* code = $loinc#1", "* component[0].code = $loinc#2"}, fsh(inst.Rules))
	require.Len(t, pkg.Aliases, 1)
	assert.Equal(t, "$loinc", pkg.Aliases[0].Alias)
}

func TestAll_EndToEnd(t *testing.T) {
	pkg, inst := instanceWith(
		assign("code.coding[0].system", "http://loinc.org"),
		assign("code.coding[0].code", fshtypes.Code{Code: "8480-6"}),
		assign("valueQuantity.value", json.Number("1.21")),
		assign("valueQuantity.system", fshtypes.UCUM),
		assign("valueQuantity.code", fshtypes.Code{Code: "GW"}),
	)

	require.NoError(t, optimizer.Optimize(pkg, newStubFisher(), gofsh.DefaultOptions(), All()...))
	assert.Equal(t, []string{
		"* code = $loinc#8480-6",
		"* valueQuantity = 1.21 'GW'",
	}, fsh(inst.Rules))
}
