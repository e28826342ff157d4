// Package exportable is the FSH object model: rules, the entities that own
// them and the Package aggregating one conversion run.
package exportable

import (
	"strconv"
	"strings"

	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// Rule is one FSH rule. The set of rule kinds is closed.
type Rule interface {
	// RulePath returns the element path the rule applies to ("" for the
	// entity itself).
	RulePath() string
	// FSH renders the rule as one (or, for indented contains rules, more)
	// lines of FSH.
	FSH() string
	rule()
}

// CardRule constrains cardinality. Either bound may be absent.
type CardRule struct {
	Path   string
	Min    int
	HasMin bool
	Max    string
}

// FlagRule sets element flags.
type FlagRule struct {
	Path        string
	MustSupport bool
	Summary     bool
	Modifier    bool
	TrialUse    bool
	Normative   bool
	Draft       bool
}

// CombinedCardFlagRule is a cardinality and flag rule on the same path.
type CombinedCardFlagRule struct {
	Card  *CardRule
	Flags *FlagRule
}

// BindingRule binds a coded element to a value set.
type BindingRule struct {
	Path     string
	ValueSet string
	Strength string
}

// AssignmentRule assigns a value to an element.
type AssignmentRule struct {
	Path       string
	Value      any
	Exactly    bool
	IsInstance bool
}

// ContainsItem is one slice declared by a ContainsRule. Type is set for
// extension slices and names the extension definition.
type ContainsItem struct {
	Name  string
	Type  string
	Card  *CardRule
	Flags *FlagRule
}

// ContainsRule declares slices on a sliced element.
type ContainsRule struct {
	Path   string
	Items  []ContainsItem
	Indent bool
}

// ObeysRule references invariants by key.
type ObeysRule struct {
	Path string
	Keys []string
}

// OnlyType is one allowed type of an OnlyRule.
type OnlyType struct {
	Type                string
	IsReference         bool
	IsCanonical         bool
	IsCodeableReference bool
}

// OnlyRule restricts the types of an element.
type OnlyRule struct {
	Path  string
	Types []OnlyType
}

// CaretValueRule sets a metadata attribute of an element or entity. For
// CodeSystem concepts Path holds the concept hierarchy ("#parent #child").
type CaretValueRule struct {
	Path       string
	CaretPath  string
	Value      any
	IsInstance bool
}

// AddElementRule declares a new element on a logical model or resource.
type AddElementRule struct {
	Path             string
	Min              int
	Max              string
	Types            []OnlyType
	Flags            FlagRule
	Short            string
	Definition       string
	ContentReference string
}

// ValueSetComponentFrom is the "from system X and valueset Y" part of a
// value set component.
type ValueSetComponentFrom struct {
	System    string
	ValueSets []string
}

// ValueSetConceptComponentRule includes or excludes enumerated concepts.
type ValueSetConceptComponentRule struct {
	Inclusion bool
	From      ValueSetComponentFrom
	Concepts  []fshtypes.Code
}

// ValueSetFilter is one "where" clause of a filter component.
type ValueSetFilter struct {
	Property string
	Operator string
	Value    any
}

// ValueSetFilterComponentRule includes or excludes codes by system, value
// set and filters.
type ValueSetFilterComponentRule struct {
	Inclusion bool
	From      ValueSetComponentFrom
	Filters   []ValueSetFilter
}

// ConceptRule defines a CodeSystem concept. Hierarchy holds the codes of
// its ancestors.
type ConceptRule struct {
	Code       string
	Display    string
	Definition string
	Hierarchy  []string
}

// MappingRule maps an element in a Mapping.
type MappingRule struct {
	Path     string
	Map      string
	Comment  string
	Language *fshtypes.Code
}

func (*CardRule) rule()                     {}
func (*FlagRule) rule()                     {}
func (*CombinedCardFlagRule) rule()         {}
func (*BindingRule) rule()                  {}
func (*AssignmentRule) rule()               {}
func (*ContainsRule) rule()                 {}
func (*ObeysRule) rule()                    {}
func (*OnlyRule) rule()                     {}
func (*CaretValueRule) rule()               {}
func (*AddElementRule) rule()               {}
func (*ValueSetConceptComponentRule) rule() {}
func (*ValueSetFilterComponentRule) rule()  {}
func (*ConceptRule) rule()                  {}
func (*MappingRule) rule()                  {}

// RulePath implements Rule.
func (r *CardRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *FlagRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *CombinedCardFlagRule) RulePath() string { return r.Card.Path }

// RulePath implements Rule.
func (r *BindingRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *AssignmentRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *ContainsRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *ObeysRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *OnlyRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *CaretValueRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *AddElementRule) RulePath() string { return r.Path }

// RulePath implements Rule.
func (r *ValueSetConceptComponentRule) RulePath() string { return "" }

// RulePath implements Rule.
func (r *ValueSetFilterComponentRule) RulePath() string { return "" }

// RulePath implements Rule.
func (r *ConceptRule) RulePath() string {
	return strings.TrimSpace(conceptPath(append(append([]string{}, r.Hierarchy...), r.Code)))
}

// RulePath implements Rule.
func (r *MappingRule) RulePath() string { return r.Path }

// IsEmpty reports whether no bound is set.
func (r *CardRule) IsEmpty() bool {
	return !r.HasMin && r.Max == ""
}

// Card renders "min..max".
func (r *CardRule) Card() string {
	var b strings.Builder
	if r.HasMin {
		b.WriteString(strconv.Itoa(r.Min))
	}
	b.WriteString("..")
	b.WriteString(r.Max)
	return b.String()
}

// HasFlags reports whether any flag is set.
func (r *FlagRule) HasFlags() bool {
	return r.MustSupport || r.Summary || r.Modifier || r.TrialUse || r.Normative || r.Draft
}

// Flags renders the flag tokens.
func (r *FlagRule) Flags() string {
	var flags []string
	if r.MustSupport {
		flags = append(flags, "MS")
	}
	if r.Summary {
		flags = append(flags, "SU")
	}
	if r.Modifier {
		flags = append(flags, "?!")
	}
	if r.TrialUse {
		flags = append(flags, "TU")
	}
	if r.Normative {
		flags = append(flags, "N")
	}
	if r.Draft {
		flags = append(flags, "D")
	}
	return strings.Join(flags, " ")
}

// Merge sets every flag that other sets.
func (r *FlagRule) Merge(other *FlagRule) {
	r.MustSupport = r.MustSupport || other.MustSupport
	r.Summary = r.Summary || other.Summary
	r.Modifier = r.Modifier || other.Modifier
	r.TrialUse = r.TrialUse || other.TrialUse
	r.Normative = r.Normative || other.Normative
	r.Draft = r.Draft || other.Draft
}

func conceptPath(codes []string) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fshtypes.Code{Code: c}.FSH()
	}
	return strings.Join(parts, " ")
}
