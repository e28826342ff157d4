package plugins

import (
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// definitions returns every StructureDefinition, ValueSet and CodeSystem.
func definitions(pkg *exportable.Package) []exportable.RuleOwner {
	owners := pkg.StructureDefinitions()
	for _, vs := range pkg.ValueSets {
		owners = append(owners, vs)
	}
	for _, cs := range pkg.CodeSystems {
		owners = append(owners, cs)
	}
	return owners
}

func rootCaret(r exportable.Rule, caretPath string) (*exportable.CaretValueRule, bool) {
	c, ok := r.(*exportable.CaretValueRule)
	if !ok || c.Path != "" || c.CaretPath != caretPath {
		return nil, false
	}
	return c, true
}

// removeGeneratedDates drops ^date when every dated definition carries the
// same UTC timestamp. Definitions without a date do not count.
func removeGeneratedDates(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	owners := definitions(pkg)
	var stamp string
	found := false
	for _, owner := range owners {
		for _, r := range *owner.RuleList() {
			c, ok := rootCaret(r, "date")
			if !ok {
				continue
			}
			s, ok := c.Value.(string)
			if !ok || !fhirtypes.IsUTCDateTime(s) || (found && s != stamp) {
				return nil
			}
			stamp, found = s, true
		}
	}
	if !found {
		return nil
	}
	for _, owner := range owners {
		rules := owner.RuleList()
		drop := make(map[int]bool)
		for i, r := range *rules {
			if _, ok := rootCaret(r, "date"); ok {
				drop[i] = true
			}
		}
		*rules = removeRules(*rules, drop)
	}
	return nil
}

// textTarget returns the path a narrative rule addresses, folding caret
// rules into "^" paths so one lookup serves both kinds.
func textTarget(r exportable.Rule) (string, any, bool) {
	switch rule := r.(type) {
	case *exportable.AssignmentRule:
		return rule.Path, rule.Value, true
	case *exportable.CaretValueRule:
		return rule.Path + "^" + rule.CaretPath, rule.Value, true
	}
	return "", nil, false
}

func textPrefix(path, leaf string) (string, bool) {
	if path == leaf || strings.HasSuffix(path, "^"+leaf) {
		return strings.TrimSuffix(path, leaf), true
	}
	return strings.CutSuffix(path, "."+leaf)
}

func removeGeneratedTextRules(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	for _, owner := range pkg.AllRuleOwners() {
		rules := owner.RuleList()
		generated := make(map[string]bool)
		for _, r := range *rules {
			path, value, ok := textTarget(r)
			if !ok {
				continue
			}
			if prefix, ok := textPrefix(path, "text.status"); ok && codeEquals(value, "generated") {
				generated[prefix] = true
			}
		}
		if len(generated) == 0 {
			continue
		}
		drop := make(map[int]bool)
		for i, r := range *rules {
			path, _, ok := textTarget(r)
			if !ok {
				continue
			}
			for _, leaf := range []string{"text.status", "text.div"} {
				if prefix, ok := textPrefix(path, leaf); ok && generated[prefix] {
					drop[i] = true
				}
			}
		}
		*rules = removeRules(*rules, drop)
	}
	return nil
}

func removeGeneratedURLRules(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	if pkg.Config == nil || pkg.Config.Canonical == "" {
		return nil
	}
	canonical := strings.TrimRight(pkg.Config.Canonical, "/")
	check := func(owner exportable.RuleOwner, resourceType, id string) {
		want := canonical + "/" + resourceType + "/" + id
		rules := owner.RuleList()
		drop := make(map[int]bool)
		for i, r := range *rules {
			if c, ok := rootCaret(r, "url"); ok && urlEquals(c.Value, want) {
				drop[i] = true
			}
		}
		*rules = removeRules(*rules, drop)
	}
	for _, e := range pkg.Profiles {
		check(e, "StructureDefinition", e.ID)
	}
	for _, e := range pkg.Extensions {
		check(e, "StructureDefinition", e.ID)
	}
	for _, e := range pkg.Logicals {
		check(e, "StructureDefinition", e.ID)
	}
	for _, e := range pkg.Resources {
		check(e, "StructureDefinition", e.ID)
	}
	for _, e := range pkg.ValueSets {
		check(e, "ValueSet", e.ID)
	}
	for _, e := range pkg.CodeSystems {
		check(e, "CodeSystem", e.ID)
	}
	return nil
}

func urlEquals(v any, want string) bool {
	switch val := v.(type) {
	case string:
		return val == want
	case fshtypes.Canonical:
		return val.Version == "" && val.EntityName == want
	}
	return false
}
