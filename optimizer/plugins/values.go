package plugins

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// valueLeaves are the attributes of Coding and Quantity that merge into a
// single value.
var valueLeaves = map[string]bool{
	"code": true, "system": true, "display": true, "unit": true, "value": true,
}

// valueGroup collects the leaf assignments sharing a parent path. Caret
// rules group by element path and caret parent.
type valueGroup struct {
	caret  bool
	path   string
	parent string
	leaves map[string]int
	dup    bool
}

func (g *valueGroup) rule(rules []exportable.Rule, value any) exportable.Rule {
	switch tmpl := rules[g.leaves["code"]].(type) {
	case *exportable.CaretValueRule:
		return &exportable.CaretValueRule{Path: g.path, CaretPath: g.parent, Value: value, IsInstance: tmpl.IsInstance}
	case *exportable.AssignmentRule:
		return &exportable.AssignmentRule{Path: g.parent, Value: value, Exactly: tmpl.Exactly, IsInstance: tmpl.IsInstance}
	}
	return nil
}

func leafValue(r exportable.Rule) any {
	switch rule := r.(type) {
	case *exportable.CaretValueRule:
		return rule.Value
	case *exportable.AssignmentRule:
		return rule.Value
	}
	return nil
}

func valueGroups(rules []exportable.Rule) (map[string]*valueGroup, []string) {
	groups := make(map[string]*valueGroup)
	var order []string
	for i, r := range rules {
		var caret bool
		var path, full string
		switch rule := r.(type) {
		case *exportable.CaretValueRule:
			caret, path, full = true, rule.Path, rule.CaretPath
		case *exportable.AssignmentRule:
			full = rule.Path
		default:
			continue
		}
		parent, leaf := splitLeaf(full)
		if parent == "" || !valueLeaves[leaf] {
			continue
		}
		key := fmt.Sprintf("%t|%s|%s", caret, path, parent)
		g, ok := groups[key]
		if !ok {
			g = &valueGroup{caret: caret, path: path, parent: parent, leaves: make(map[string]int)}
			groups[key] = g
			order = append(order, key)
		}
		if _, seen := g.leaves[leaf]; seen {
			g.dup = true
		}
		g.leaves[leaf] = i
	}
	return groups, order
}

func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case fshtypes.Code:
		if val.System == "" && val.Display == "" {
			return val.Code, true
		}
	case json.Number:
		return val.String(), true
	}
	return "", false
}

// merge applies the merge precedence and returns the combined value plus the
// indexes of the rules it replaces.
func (g *valueGroup) merge(rules []exportable.Rule) (any, []int, bool) {
	if g.dup {
		return nil, nil, false
	}
	codeIdx, ok := g.leaves["code"]
	if !ok {
		return nil, nil, false
	}
	code, ok := stringValue(leafValue(rules[codeIdx]))
	if !ok {
		return nil, nil, false
	}
	text := func(leaf string) (string, int, bool) {
		i, ok := g.leaves[leaf]
		if !ok {
			return "", -1, false
		}
		s, ok := stringValue(leafValue(rules[i]))
		return s, i, ok
	}
	system, systemIdx, hasSystem := text("system")
	display, displayIdx, hasDisplay := text("display")
	unit, unitIdx, hasUnit := text("unit")
	value, valueIdx, hasValue := text("value")

	switch {
	case hasValue && hasSystem && system == fshtypes.UCUM:
		used := []int{codeIdx, systemIdx, valueIdx}
		if hasUnit {
			used = append(used, unitIdx)
		}
		return fshtypes.Quantity{
			Value: json.Number(value),
			Unit:  &fshtypes.Code{Code: code, System: system, Display: unit},
		}, used, true
	case hasSystem:
		used := []int{codeIdx, systemIdx}
		if hasDisplay {
			used = append(used, displayIdx)
		}
		return fshtypes.Code{Code: code, System: system, Display: display}, used, true
	case hasUnit && !hasDisplay:
		return fshtypes.Code{Code: code, Display: unit}, []int{codeIdx, unitIdx}, true
	}
	return nil, nil, false
}

func combineCodingAndQuantityValues(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	for _, owner := range pkg.AllRuleOwners() {
		rules := owner.RuleList()
		groups, order := valueGroups(*rules)
		drop := make(map[int]bool)
		for _, key := range order {
			g := groups[key]
			value, used, ok := g.merge(*rules)
			if !ok {
				continue
			}
			at := used[0]
			for _, i := range used {
				at = min(at, i)
			}
			merged := g.rule(*rules, value)
			for _, i := range used {
				drop[i] = true
			}
			drop[at] = false
			(*rules)[at] = merged
		}
		*rules = removeRules(*rules, drop)
	}
	return nil
}

// codingPath returns x for "x.coding[0]".
func codingPath(path string) (string, bool) {
	return strings.CutSuffix(path, ".coding[0]")
}

func simplifyCodeableConceptCodings(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	for _, owner := range pkg.AllRuleOwners() {
		rules := *owner.RuleList()
		for i, r := range rules {
			switch rule := r.(type) {
			case *exportable.AssignmentRule:
				target, ok := codingPath(rule.Path)
				if !ok || !isCode(rule.Value) || codingReferenced(rules, i, false, "", rule.Path) {
					continue
				}
				rule.Path = target
			case *exportable.CaretValueRule:
				target, ok := codingPath(rule.CaretPath)
				if !ok || !isCode(rule.Value) || codingReferenced(rules, i, true, rule.Path, rule.CaretPath) {
					continue
				}
				rule.CaretPath = target
			}
		}
	}
	return nil
}

func isCode(v any) bool {
	_, ok := v.(fshtypes.Code)
	return ok
}

// codingReferenced reports whether a rule other than rules[self] addresses
// coding (or something below it). Caret rules only collide with caret rules
// on the same element.
func codingReferenced(rules []exportable.Rule, self int, caret bool, elementPath, coding string) bool {
	refers := func(p string) bool {
		return p == coding || strings.HasPrefix(p, coding+".") || strings.HasPrefix(p, coding+"[")
	}
	for i, r := range rules {
		if i == self {
			continue
		}
		if c, ok := r.(*exportable.CaretValueRule); ok {
			if caret && c.Path == elementPath && refers(c.CaretPath) {
				return true
			}
			continue
		}
		if !caret && refers(r.RulePath()) {
			return true
		}
	}
	return false
}
