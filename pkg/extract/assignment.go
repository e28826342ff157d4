package extract

import (
	"strings"

	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// assignments turns fixed[x] and pattern[x] values into assignment rules.
// Complex values are expanded into one rule per leaf.
func (d *Definition) assignments(e *element) []exportable.Rule {
	var rules []exportable.Rule
	for _, key := range sortedKeys(e.Raw) {
		exactly, suffix, ok := assignmentKey(key)
		if !ok {
			continue
		}
		if d.unchanged(e, key) || d.isImpliedURL(e, key) {
			e.MarkProcessedPrefix(key)
			continue
		}

		typ := TypeFromSuffix(suffix)
		base := e.path
		if strings.HasSuffix(base, "[x]") {
			base = strings.TrimSuffix(base, "[x]") + suffix
		}
		if base == "." {
			base = ""
		}

		v := e.Raw[key]
		switch v.(type) {
		case map[string]any, []any:
			for _, leaf := range fhirtypes.FlattenValue("", v) {
				path := joinPath(base, leaf.Key)
				if leaf.IsEmptyContainer() {
					d.ctx.dropEmpty(d.source(), path)
					continue
				}
				leafType := d.ctx.Types.TypeOf(typ, leaf.Key)
				rules = append(rules, &exportable.AssignmentRule{
					Path:    path,
					Value:   d.ctx.value(d.source(), path, leafType, leaf.Value),
					Exactly: exactly,
				})
			}
		default:
			rules = append(rules, &exportable.AssignmentRule{
				Path:    base,
				Value:   d.ctx.value(d.source(), base, typ, v),
				Exactly: exactly,
			})
		}
		e.MarkProcessedPrefix(key)
	}
	return rules
}

// assignmentKey splits "patternCodeableConcept" into (false, "CodeableConcept").
func assignmentKey(key string) (exactly bool, suffix string, ok bool) {
	for _, prefix := range []string{"fixed", "pattern"} {
		rest, found := strings.CutPrefix(key, prefix)
		if found && rest != "" && rest[0] >= 'A' && rest[0] <= 'Z' {
			return prefix == "fixed", rest, true
		}
	}
	return false, "", false
}

// isImpliedURL reports the extension url assignments every extension gets
// without a rule: Extension.url fixed to the definition's url, and a
// sub-extension url fixed to its slice name.
func (d *Definition) isImpliedURL(e *element, key string) bool {
	if key != "fixedUri" || lastSegment(e.ID) != "url" {
		return false
	}
	url, _ := e.Raw[key].(string)
	parent := fhirtypes.ParentID(e.ID)
	if !strings.Contains(parent, ".") {
		return d.SD.Type == "Extension" && url == d.SD.URL
	}
	base, slice, sliced := strings.Cut(lastSegment(parent), ":")
	return sliced && base == "extension" && url == slice
}
