// Package plugins is the catalogue of optimizer passes.
package plugins

import (
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/optimizer"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// Pass names.
const (
	CombineContainsRules           = "combine_contains_rules"
	CombineCardAndFlagRules        = "combine_card_and_flag_rules"
	CombineCodingAndQuantityValues = "combine_coding_and_quantity_values"
	SimplifyCodeableConceptCodings = "simplify_codeable_concept_codings"
	RemoveDefaultSlicingRules      = "remove_default_slicing_rules"
	RemoveGeneratedDates           = "remove_generated_dates"
	RemoveGeneratedTextRules       = "remove_generated_text_rules"
	RemoveGeneratedURLRules        = "remove_generated_url_rules"
	ResolveParentURLs              = "resolve_parent_urls"
	ResolveInstanceOfURLs          = "resolve_instance_of_urls"
	ResolveBindingRuleURLs         = "resolve_binding_rule_urls"
	ResolveOnlyRuleURLs            = "resolve_only_rule_urls"
	ResolveContainsRuleURLs        = "resolve_contains_rule_urls"
	ResolveValueSetComponentURLs   = "resolve_value_set_component_urls"
	ResolveValueRuleURLs           = "resolve_value_rule_urls"
)

// All returns every pass in registration order.
func All() []optimizer.Plugin {
	return []optimizer.Plugin{
		optimizer.NewPluginFunc(CombineContainsRules, combineContainsRules,
			optimizer.WithDescription("Fuse repeated contains rules on one path"),
			optimizer.Before(CombineCardAndFlagRules, ResolveContainsRuleURLs)),
		optimizer.NewPluginFunc(CombineCardAndFlagRules, combineCardAndFlagRules,
			optimizer.WithDescription("Join a card rule and a flag rule on the same path")),
		optimizer.NewPluginFunc(CombineCodingAndQuantityValues, combineCodingAndQuantityValues,
			optimizer.WithDescription("Merge code, system, display, unit and value assignments into one value"),
			optimizer.Before(SimplifyCodeableConceptCodings, ResolveValueRuleURLs)),
		optimizer.NewPluginFunc(SimplifyCodeableConceptCodings, simplifyCodeableConceptCodings,
			optimizer.WithDescription("Assign a single coding directly to its CodeableConcept"),
			optimizer.After(CombineCodingAndQuantityValues)),
		optimizer.NewPluginFunc(RemoveDefaultSlicingRules, removeDefaultSlicingRules,
			optimizer.WithDescription("Drop slicing rules that repeat the implied extension and choice slicing"),
			optimizer.Before(CombineCodingAndQuantityValues)),
		optimizer.NewPluginFunc(RemoveGeneratedDates, removeGeneratedDates,
			optimizer.WithDescription("Drop the date stamped on every definition by the publishing tool"),
			optimizer.EnabledWhen(func(o *gofsh.Options) bool { return !o.KeepGeneratedDates })),
		optimizer.NewPluginFunc(RemoveGeneratedTextRules, removeGeneratedTextRules,
			optimizer.WithDescription("Drop generated narrative")),
		optimizer.NewPluginFunc(RemoveGeneratedURLRules, removeGeneratedURLRules,
			optimizer.WithDescription("Drop url caret rules the FSH compiler would generate")),
		optimizer.NewPluginFunc(ResolveParentURLs, resolveParentURLs,
			optimizer.WithDescription("Replace parent urls with names or aliases")),
		optimizer.NewPluginFunc(ResolveInstanceOfURLs, resolveInstanceOfURLs,
			optimizer.WithDescription("Replace InstanceOf urls with names or aliases")),
		optimizer.NewPluginFunc(ResolveBindingRuleURLs, resolveBindingRuleURLs,
			optimizer.WithDescription("Replace bound value set urls with names or aliases")),
		optimizer.NewPluginFunc(ResolveOnlyRuleURLs, resolveOnlyRuleURLs,
			optimizer.WithDescription("Replace profile urls in only rules and added elements with names or aliases")),
		optimizer.NewPluginFunc(ResolveContainsRuleURLs, resolveContainsRuleURLs,
			optimizer.WithDescription("Replace extension urls in contains rules with names or aliases")),
		optimizer.NewPluginFunc(ResolveValueSetComponentURLs, resolveValueSetComponentURLs,
			optimizer.WithDescription("Replace system and value set urls in value set components with names or aliases")),
		optimizer.NewPluginFunc(ResolveValueRuleURLs, resolveValueRuleURLs,
			optimizer.WithDescription("Replace urls inside assigned codes, canonicals and references with names or aliases")),
	}
}

// nameFor returns the name of the definition at url. A name that resolves
// to a different definition is shadowed and rejected.
func nameFor(resolver fhirtypes.Fishable, url string, types ...fhirtypes.FishType) (string, bool) {
	if resolver == nil || !fshtypes.IsURL(url) {
		return "", false
	}
	meta, ok := resolver.FishForMetadata(url, types...)
	if !ok || meta.Name == "" || meta.URL != url {
		return "", false
	}
	back, ok := resolver.FishForMetadata(meta.Name, types...)
	if !ok || back.URL != url {
		return "", false
	}
	return meta.Name, true
}

// nameOrAlias returns the name for url, else an alias when alias
// generation is on, else url itself.
func nameOrAlias(pkg *exportable.Package, resolver fhirtypes.Fishable, opts *gofsh.Options, url string, types ...fhirtypes.FishType) string {
	if url == "" || !fshtypes.IsURL(url) {
		return url
	}
	if name, ok := nameFor(resolver, url, types...); ok {
		return name
	}
	if opts.GenerateAliases {
		return pkg.AliasFor(url)
	}
	return url
}

// removeRules drops the rules at the marked indexes.
func removeRules(rules []exportable.Rule, drop map[int]bool) []exportable.Rule {
	if len(drop) == 0 {
		return rules
	}
	out := rules[:0]
	for i, r := range rules {
		if !drop[i] {
			out = append(out, r)
		}
	}
	return out
}

// splitLeaf splits "a.b.c" into ("a.b", "c").
func splitLeaf(path string) (parent, leaf string) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
