package plugins

import (
	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

func combineContainsRules(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	for _, owner := range pkg.StructureDefinitions() {
		rules := owner.RuleList()
		first := make(map[string]*exportable.ContainsRule)
		drop := make(map[int]bool)
		for i, r := range *rules {
			cr, ok := r.(*exportable.ContainsRule)
			if !ok {
				continue
			}
			target, seen := first[cr.Path]
			if !seen {
				first[cr.Path] = cr
				continue
			}
			for _, item := range cr.Items {
				mergeItem(target, item)
			}
			drop[i] = true
		}
		*rules = removeRules(*rules, drop)
	}
	return nil
}

// mergeItem adds item to rule. An item already declared under the same name
// takes the bounds and flags item sets.
func mergeItem(rule *exportable.ContainsRule, item exportable.ContainsItem) {
	for i := range rule.Items {
		existing := &rule.Items[i]
		if existing.Name != item.Name {
			continue
		}
		if existing.Type == "" {
			existing.Type = item.Type
		}
		if item.Card != nil {
			if existing.Card == nil {
				existing.Card = &exportable.CardRule{Path: item.Card.Path}
			}
			if item.Card.HasMin {
				existing.Card.Min, existing.Card.HasMin = item.Card.Min, true
			}
			if item.Card.Max != "" {
				existing.Card.Max = item.Card.Max
			}
		}
		if item.Flags != nil {
			if existing.Flags == nil {
				existing.Flags = &exportable.FlagRule{Path: item.Flags.Path}
			}
			existing.Flags.Merge(item.Flags)
		}
		return
	}
	rule.Items = append(rule.Items, item)
}

func combineCardAndFlagRules(pkg *exportable.Package, _ fhirtypes.Fishable, _ *gofsh.Options) error {
	for _, owner := range pkg.StructureDefinitions() {
		rules := owner.RuleList()
		drop := make(map[int]bool)
		for i, r := range *rules {
			if drop[i] {
				continue
			}
			card, isCard := r.(*exportable.CardRule)
			flags, isFlag := r.(*exportable.FlagRule)
			if !isCard && !isFlag {
				continue
			}
			path := r.RulePath()
			for j := i + 1; j < len(*rules); j++ {
				next := (*rules)[j]
				if next.RulePath() != path {
					continue
				}
				switch n := next.(type) {
				case *exportable.FlagRule:
					if isCard {
						flags = n
					}
				case *exportable.CardRule:
					if isFlag {
						card = n
					}
				}
				if card != nil && flags != nil && !card.IsEmpty() {
					(*rules)[i] = &exportable.CombinedCardFlagRule{Card: card, Flags: flags}
					drop[j] = true
				}
				break
			}
		}
		*rules = removeRules(*rules, drop)
	}
	return nil
}
