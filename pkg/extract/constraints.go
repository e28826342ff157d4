package extract

import (
	"fmt"
	"strings"

	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// StandardsStatusURL is the extension carrying the TU, N and D flags.
const StandardsStatusURL = "http://hl7.org/fhir/StructureDefinition/structuredefinition-standards-status"

func (d *Definition) card(e *element) exportable.Rule {
	rule := &exportable.CardRule{Path: e.path}

	if v, ok := e.Raw["min"]; ok {
		if n, ok := asInt(v); ok {
			e.MarkProcessed("min")
			if !d.unchanged(e, "min") {
				rule.Min, rule.HasMin = n, true
			}
		}
	}
	if v, ok := e.Raw["max"].(string); ok {
		e.MarkProcessed("max")
		if !d.unchanged(e, "max") {
			rule.Max = v
		}
	}

	if rule.IsEmpty() {
		return nil
	}
	return rule
}

func (d *Definition) flags(e *element) exportable.Rule {
	rule := d.flagRule(e, e.path)
	if !rule.HasFlags() {
		return nil
	}
	return rule
}

// flagRule consumes the flag attributes that are set and not inherited.
// A false value over an inherited true is left to the caret extractor.
func (d *Definition) flagRule(e *element, path string) *exportable.FlagRule {
	rule := &exportable.FlagRule{Path: path}
	d.boolFlag(e, "mustSupport", &rule.MustSupport)
	d.boolFlag(e, "isSummary", &rule.Summary)
	d.boolFlag(e, "isModifier", &rule.Modifier)
	d.standardsStatus(e, rule)
	return rule
}

func (d *Definition) boolFlag(e *element, key string, dst *bool) {
	v, ok := e.Raw[key].(bool)
	if !ok {
		return
	}
	old, _ := d.inherited(e, key)
	inherited, _ := old.(bool)
	switch {
	case v == inherited:
		e.MarkProcessed(key)
	case v:
		*dst = true
		e.MarkProcessed(key)
	}
}

func (d *Definition) standardsStatus(e *element, rule *exportable.FlagRule) {
	old, _ := d.inherited(e, "extension")
	for i, ext := range fhirtypes.Objects(e.Raw["extension"]) {
		if fhirtypes.String(ext, "url") != StandardsStatusURL || len(ext) != 2 {
			continue
		}
		code := fhirtypes.String(ext, "valueCode")
		inherited := false
		for _, o := range fhirtypes.Objects(old) {
			if fhirtypes.Equal(o, ext) {
				inherited = true
			}
		}
		switch {
		case inherited:
		case code == "trial-use":
			rule.TrialUse = true
		case code == "normative":
			rule.Normative = true
		case code == "draft":
			rule.Draft = true
		default:
			continue
		}
		prefix := fmt.Sprintf("extension[%d]", i)
		e.MarkProcessed(prefix+".url", prefix+".valueCode")
	}
}

func (d *Definition) only(e *element) exportable.Rule {
	if _, ok := e.Raw["type"]; !ok {
		return nil
	}
	if d.unchanged(e, "type") {
		e.MarkProcessedPrefix("type")
		return nil
	}

	types := onlyTypes(e)
	if len(types) == 0 {
		return nil
	}
	if isImpliedChoiceType(e, types) {
		return nil
	}
	return &exportable.OnlyRule{Path: e.path, Types: types}
}

// onlyTypes converts the element's type list, consuming the code, profile
// and targetProfile keys it expresses. Entries already consumed (extension
// slice profiles) are skipped.
func onlyTypes(e *element) []exportable.OnlyType {
	var out []exportable.OnlyType
	for i, t := range fhirtypes.Objects(e.Raw["type"]) {
		prefix := fmt.Sprintf("type[%d]", i)
		if e.IsProcessed(prefix + ".code") {
			continue
		}
		code := fhirtypes.String(t, "code")
		if code == "" {
			continue
		}
		profiles := fhirtypes.Strings(t["profile"])
		targets := fhirtypes.Strings(t["targetProfile"])

		switch {
		case len(targets) > 0 && (code == "Reference" || code == "canonical" || code == "CodeableReference"):
			for j, target := range targets {
				out = append(out, exportable.OnlyType{
					Type:                target,
					IsReference:         code == "Reference",
					IsCanonical:         code == "canonical",
					IsCodeableReference: code == "CodeableReference",
				})
				e.MarkProcessed(fmt.Sprintf("%s.targetProfile[%d]", prefix, j))
			}
		case len(profiles) > 0 && len(targets) == 0:
			for j, profile := range profiles {
				out = append(out, exportable.OnlyType{Type: profile})
				e.MarkProcessed(fmt.Sprintf("%s.profile[%d]", prefix, j))
			}
		case len(profiles) == 0:
			out = append(out, exportable.OnlyType{Type: code})
		default:
			continue
		}
		e.MarkProcessed(prefix + ".code")
	}
	return out
}

// isImpliedChoiceType reports a type slice such as value[x]:valueQuantity
// restricted to exactly the type its name implies.
func isImpliedChoiceType(e *element, types []exportable.OnlyType) bool {
	if e.IsSlice() || len(types) != 1 {
		return false
	}
	base, slice, ok := strings.Cut(lastSegment(e.ID), ":")
	if !ok {
		return false
	}
	t := types[0]
	if t.IsReference || t.IsCanonical || t.IsCodeableReference {
		return false
	}
	return slice == strings.TrimSuffix(base, "[x]")+upperFirst(t.Type)
}

func (d *Definition) binding(e *element) exportable.Rule {
	b, ok := e.Raw["binding"].(map[string]any)
	if !ok {
		return nil
	}
	vs := fhirtypes.String(b, "valueSet")
	if vs == "" {
		return nil
	}
	strength := fhirtypes.String(b, "strength")
	e.MarkProcessed("binding.valueSet")
	if strength != "" {
		e.MarkProcessed("binding.strength")
	}

	if old, ok := d.inherited(e, "binding"); ok {
		if ob, ok := old.(map[string]any); ok &&
			fhirtypes.String(ob, "valueSet") == vs && fhirtypes.String(ob, "strength") == strength {
			return nil
		}
	}
	return &exportable.BindingRule{Path: e.path, ValueSet: vs, Strength: strength}
}
