package plugins

import (
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// defaultSlicing is the slicing the FSH compiler adds on its own when an
// extension or choice element gets sliced.
type defaultSlicing struct {
	discriminatorType string
	discriminatorPath string
}

var (
	extensionSlicing = defaultSlicing{discriminatorType: "value", discriminatorPath: "url"}
	choiceSlicing    = defaultSlicing{discriminatorType: "type", discriminatorPath: "$this"}
)

func (d defaultSlicing) matches(caretPath string, value any) bool {
	switch caretPath {
	case "slicing.discriminator[0].type":
		return codeEquals(value, d.discriminatorType)
	case "slicing.discriminator[0].path":
		s, ok := value.(string)
		return ok && s == d.discriminatorPath
	case "slicing.ordered":
		b, ok := value.(bool)
		return ok && !b
	case "slicing.rules":
		return codeEquals(value, "open")
	}
	return false
}

func codeEquals(v any, code string) bool {
	switch val := v.(type) {
	case fshtypes.Code:
		return val.Code == code && val.System == ""
	case string:
		return val == code
	}
	return false
}

func slicingFor(path string) (defaultSlicing, bool) {
	if strings.HasSuffix(path, "[x]") {
		return choiceSlicing, true
	}
	_, leaf := splitLeaf(path)
	if leaf == "extension" || leaf == "modifierExtension" {
		return extensionSlicing, true
	}
	return defaultSlicing{}, false
}

// slicingUsed reports whether a rule other than the slicing rules themselves
// addresses a slice of path.
func slicingUsed(rules []exportable.Rule, slicing map[int]bool, path string) bool {
	choiceBase, isChoice := strings.CutSuffix(path, "[x]")
	for i, r := range rules {
		if slicing[i] {
			continue
		}
		p := r.RulePath()
		if strings.HasPrefix(p, path+"[") {
			return true
		}
		if _, ok := r.(*exportable.ContainsRule); ok && p == path {
			return true
		}
		if isChoice {
			rest, ok := strings.CutPrefix(p, choiceBase)
			if ok && rest != "" && rest[0] >= 'A' && rest[0] <= 'Z' {
				return true
			}
		}
	}
	return false
}

func removeDefaultSlicingRules(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	for _, owner := range pkg.StructureDefinitions() {
		rules := owner.RuleList()
		byPath := make(map[string]map[int]bool)
		var paths []string
		for i, r := range *rules {
			c, ok := r.(*exportable.CaretValueRule)
			if !ok || !strings.HasPrefix(c.CaretPath, "slicing") {
				continue
			}
			if byPath[c.Path] == nil {
				byPath[c.Path] = make(map[int]bool)
				paths = append(paths, c.Path)
			}
			byPath[c.Path][i] = true
		}

		drop := make(map[int]bool)
		for _, path := range paths {
			indexes := byPath[path]
			def, ok := slicingFor(path)
			if !ok || len(indexes) != 4 {
				continue
			}
			seen := make(map[string]bool)
			for i := range indexes {
				c := (*rules)[i].(*exportable.CaretValueRule)
				if !def.matches(c.CaretPath, c.Value) {
					ok = false
				}
				seen[c.CaretPath] = true
			}
			if !ok || len(seen) != 4 || !slicingUsed(*rules, indexes, path) {
				continue
			}
			for i := range indexes {
				drop[i] = true
			}
		}
		*rules = removeRules(*rules, drop)
	}
	return nil
}
