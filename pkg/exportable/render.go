package exportable

import (
	"strings"

	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// indentation of continuation lines in indented contains rules.
const continuation = "    "

func start(path string) string {
	if path == "" {
		return "*"
	}
	return "* " + path
}

// FSH implements Rule.
func (r *CardRule) FSH() string {
	return start(r.Path) + " " + r.Card()
}

// FSH implements Rule.
func (r *FlagRule) FSH() string {
	return start(r.Path) + " " + r.Flags()
}

// FSH implements Rule.
func (r *CombinedCardFlagRule) FSH() string {
	s := start(r.Card.Path) + " " + r.Card.Card()
	if r.Flags.HasFlags() {
		s += " " + r.Flags.Flags()
	}
	return s
}

// FSH implements Rule.
func (r *BindingRule) FSH() string {
	s := start(r.Path) + " from " + r.ValueSet
	if r.Strength != "" {
		s += " (" + r.Strength + ")"
	}
	return s
}

// FSH implements Rule.
func (r *AssignmentRule) FSH() string {
	s := start(r.Path) + " = " + fshtypes.Format(r.Value)
	if r.Exactly {
		s += " (exactly)"
	}
	return s
}

func (item ContainsItem) fsh() string {
	var b strings.Builder
	if item.Type != "" {
		b.WriteString(item.Type)
		b.WriteString(" named ")
	}
	b.WriteString(item.Name)
	if item.Card != nil && !item.Card.IsEmpty() {
		b.WriteByte(' ')
		b.WriteString(item.Card.Card())
	}
	if item.Flags != nil && item.Flags.HasFlags() {
		b.WriteByte(' ')
		b.WriteString(item.Flags.Flags())
	}
	return b.String()
}

// FSH implements Rule.
func (r *ContainsRule) FSH() string {
	items := make([]string, len(r.Items))
	for i, item := range r.Items {
		items[i] = item.fsh()
	}
	if r.Indent && len(items) > 1 {
		return start(r.Path) + " contains\n" + continuation + strings.Join(items, " and\n"+continuation)
	}
	return start(r.Path) + " contains " + strings.Join(items, " and ")
}

// FSH implements Rule.
func (r *ObeysRule) FSH() string {
	return start(r.Path) + " obeys " + strings.Join(r.Keys, " and ")
}

func renderTypes(types []OnlyType) string {
	var refs, canonicals, codeableRefs, plain []string
	for _, t := range types {
		switch {
		case t.IsReference:
			refs = append(refs, t.Type)
		case t.IsCanonical:
			canonicals = append(canonicals, t.Type)
		case t.IsCodeableReference:
			codeableRefs = append(codeableRefs, t.Type)
		default:
			plain = append(plain, t.Type)
		}
	}
	var parts []string
	parts = append(parts, plain...)
	if len(refs) > 0 {
		parts = append(parts, "Reference("+strings.Join(refs, " or ")+")")
	}
	if len(canonicals) > 0 {
		parts = append(parts, "Canonical("+strings.Join(canonicals, " or ")+")")
	}
	if len(codeableRefs) > 0 {
		parts = append(parts, "CodeableReference("+strings.Join(codeableRefs, " or ")+")")
	}
	return strings.Join(parts, " or ")
}

// FSH implements Rule.
func (r *OnlyRule) FSH() string {
	return start(r.Path) + " only " + renderTypes(r.Types)
}

// FSH implements Rule.
func (r *CaretValueRule) FSH() string {
	return start(r.Path) + " ^" + r.CaretPath + " = " + fshtypes.Format(r.Value)
}

// FSH implements Rule.
func (r *AddElementRule) FSH() string {
	card := CardRule{Min: r.Min, HasMin: true, Max: r.Max}
	s := start(r.Path) + " " + card.Card()
	if r.Flags.HasFlags() {
		s += " " + r.Flags.Flags()
	}
	if r.ContentReference != "" {
		s += " contentReference " + r.ContentReference
	} else {
		s += " " + renderTypes(r.Types)
	}
	s += " " + fshtypes.Quote(r.Short)
	if r.Definition != "" && r.Definition != r.Short {
		s += " " + fshtypes.Quote(r.Definition)
	}
	return s
}

func (f ValueSetComponentFrom) fsh() string {
	var parts []string
	if f.System != "" {
		parts = append(parts, "system "+f.System)
	}
	if len(f.ValueSets) > 0 {
		parts = append(parts, "valueset "+strings.Join(f.ValueSets, " and "))
	}
	return strings.Join(parts, " and ")
}

func inclusion(include bool) string {
	if include {
		return "* include "
	}
	return "* exclude "
}

// FSH implements Rule.
func (r *ValueSetConceptComponentRule) FSH() string {
	concepts := make([]string, len(r.Concepts))
	for i, c := range r.Concepts {
		concepts[i] = c.FSH()
	}
	s := inclusion(r.Inclusion) + strings.Join(concepts, " and ")
	if len(r.From.ValueSets) > 0 {
		s += " from valueset " + strings.Join(r.From.ValueSets, " and ")
	}
	return s
}

func (f ValueSetFilter) fsh() string {
	var value string
	switch v := f.Value.(type) {
	case fshtypes.Code:
		value = v.FSH()
	case bool:
		value = fshtypes.Format(v)
	case string:
		if f.Operator == "regex" {
			value = "/" + strings.ReplaceAll(v, "/", `\/`) + "/"
		} else {
			value = fshtypes.Quote(v)
		}
	default:
		value = fshtypes.Format(v)
	}
	return f.Property + " " + f.Operator + " " + value
}

// FSH implements Rule.
func (r *ValueSetFilterComponentRule) FSH() string {
	s := inclusion(r.Inclusion) + "codes from " + r.From.fsh()
	if len(r.Filters) > 0 {
		filters := make([]string, len(r.Filters))
		for i, f := range r.Filters {
			filters[i] = f.fsh()
		}
		s += " where " + strings.Join(filters, " and ")
	}
	return s
}

// FSH implements Rule.
func (r *ConceptRule) FSH() string {
	s := "* " + r.RulePath()
	if r.Display != "" {
		s += " " + fshtypes.Quote(r.Display)
	}
	if r.Definition != "" {
		if r.Display == "" {
			s += ` ""`
		}
		s += " " + fshtypes.Quote(r.Definition)
	}
	return s
}

// FSH implements Rule.
func (r *MappingRule) FSH() string {
	s := start(r.Path) + " -> " + fshtypes.Quote(r.Map)
	if r.Comment != "" {
		s += " " + fshtypes.Quote(r.Comment)
	}
	if r.Language != nil {
		s += " " + r.Language.FSH()
	}
	return s
}
