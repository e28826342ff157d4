package plugins

import (
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

func resolveParentURLs(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	resolve := func(url string) string {
		return nameOrAlias(pkg, resolver, opts, url, fhirtypes.StructureDefinitionTypes...)
	}
	for _, e := range pkg.Profiles {
		e.Parent = resolve(e.Parent)
	}
	for _, e := range pkg.Extensions {
		e.Parent = resolve(e.Parent)
	}
	for _, e := range pkg.Logicals {
		e.Parent = resolve(e.Parent)
	}
	for _, e := range pkg.Resources {
		e.Parent = resolve(e.Parent)
	}
	return nil
}

func resolveInstanceOfURLs(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	for _, e := range pkg.Instances {
		e.InstanceOf = nameOrAlias(pkg, resolver, opts, e.InstanceOf, fhirtypes.StructureDefinitionTypes...)
	}
	return nil
}

// resolveBindingRuleURLs leaves versioned value set urls alone: neither a
// name nor an alias can carry the version.
func resolveBindingRuleURLs(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	for _, owner := range pkg.StructureDefinitions() {
		for _, r := range *owner.RuleList() {
			b, ok := r.(*exportable.BindingRule)
			if !ok || strings.Contains(b.ValueSet, "|") {
				continue
			}
			b.ValueSet = nameOrAlias(pkg, resolver, opts, b.ValueSet, fhirtypes.FishValueSet)
		}
	}
	return nil
}

// resolveOnlyRuleURLs covers the type lists of only rules and of the
// elements added to logical models and resources.
func resolveOnlyRuleURLs(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	resolve := func(types []exportable.OnlyType) {
		for i := range types {
			types[i].Type = nameOrAlias(pkg, resolver, opts, types[i].Type, fhirtypes.StructureDefinitionTypes...)
		}
	}
	for _, owner := range pkg.StructureDefinitions() {
		for _, r := range *owner.RuleList() {
			switch rule := r.(type) {
			case *exportable.OnlyRule:
				resolve(rule.Types)
			case *exportable.AddElementRule:
				resolve(rule.Types)
			}
		}
	}
	return nil
}

func resolveContainsRuleURLs(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	for _, owner := range pkg.StructureDefinitions() {
		for _, r := range *owner.RuleList() {
			c, ok := r.(*exportable.ContainsRule)
			if !ok {
				continue
			}
			for i := range c.Items {
				if c.Items[i].Type != "" {
					c.Items[i].Type = nameOrAlias(pkg, resolver, opts, c.Items[i].Type, fhirtypes.FishExtension)
				}
			}
		}
	}
	return nil
}

func resolveValueSetComponentURLs(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	from := func(f *exportable.ValueSetComponentFrom) {
		f.System = nameOrAlias(pkg, resolver, opts, f.System, fhirtypes.FishCodeSystem)
		for i, vs := range f.ValueSets {
			f.ValueSets[i] = nameOrAlias(pkg, resolver, opts, vs, fhirtypes.FishValueSet)
		}
	}
	for _, vs := range pkg.ValueSets {
		for _, r := range vs.Rules {
			switch rule := r.(type) {
			case *exportable.ValueSetConceptComponentRule:
				from(&rule.From)
				for i := range rule.Concepts {
					rule.Concepts[i].System = nameOrAlias(pkg, resolver, opts, rule.Concepts[i].System, fhirtypes.FishCodeSystem)
				}
			case *exportable.ValueSetFilterComponentRule:
				from(&rule.From)
			}
		}
	}
	return nil
}

func resolveValueRuleURLs(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options) error {
	resolve := func(v any) any {
		switch val := v.(type) {
		case fshtypes.Code:
			val.System = nameOrAlias(pkg, resolver, opts, val.System, fhirtypes.FishCodeSystem)
			return val
		case fshtypes.Quantity:
			if val.Unit != nil && val.Unit.System != fshtypes.UCUM {
				unit := *val.Unit
				unit.System = nameOrAlias(pkg, resolver, opts, unit.System, fhirtypes.FishCodeSystem)
				val.Unit = &unit
			}
			return val
		case fshtypes.Canonical:
			val.EntityName = nameOrAlias(pkg, resolver, opts, val.EntityName)
			return val
		case fshtypes.Reference:
			val.Reference = nameOrAlias(pkg, resolver, opts, val.Reference)
			return val
		}
		return v
	}
	for _, owner := range pkg.AllRuleOwners() {
		for _, r := range *owner.RuleList() {
			switch rule := r.(type) {
			case *exportable.AssignmentRule:
				rule.Value = resolve(rule.Value)
			case *exportable.CaretValueRule:
				rule.Value = resolve(rule.Value)
			}
		}
	}
	return nil
}
