package fhirtypes

import (
	"strings"
	"unicode"
)

// ElementDefinition is one constrained field of a StructureDefinition.
// The typed fields are a convenience; Raw is authoritative.
type ElementDefinition struct {
	ID        string
	Path      string
	SliceName string

	Raw map[string]any
}

// NewElementDefinition wraps a decoded element. Elements without an id use
// their path as id.
func NewElementDefinition(raw map[string]any) *ElementDefinition {
	ed := &ElementDefinition{
		ID:        String(raw, "id"),
		Path:      String(raw, "path"),
		SliceName: String(raw, "sliceName"),
		Raw:       raw,
	}
	if ed.ID == "" {
		ed.ID = ed.Path
	}
	return ed
}

// Get returns the raw attribute stored under key.
func (ed *ElementDefinition) Get(key string) (any, bool) {
	v, ok := ed.Raw[key]
	return v, ok
}

// IsRoot reports whether this is the root element of its definition.
func (ed *ElementDefinition) IsRoot() bool {
	return !strings.Contains(ed.ID, ".")
}

// Types returns the codes of the element's type list.
func (ed *ElementDefinition) Types() []string {
	var codes []string
	for _, t := range Objects(ed.Raw["type"]) {
		if code := String(t, "code"); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// FSHPath returns the canonical shorthand path of the element. The root
// element is ".", the resource type prefix is dropped, "a:s" becomes "a[s]",
// "a:x/y" becomes "a[x][y]" and "value[x]:valueString" becomes "valueString".
func (ed *ElementDefinition) FSHPath() string {
	return FSHPathForID(ed.ID)
}

// FSHPathForID canonicalizes a raw element id.
func FSHPathForID(id string) string {
	segments := splitID(id)
	if len(segments) <= 1 {
		return "."
	}
	out := make([]string, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		base, slice, sliced := strings.Cut(seg, ":")
		switch {
		case !sliced:
			out = append(out, base)
		case isChoiceSlice(base, slice):
			out = append(out, slice)
		default:
			out = append(out, base+"["+strings.Join(strings.Split(slice, "/"), "][")+"]")
		}
	}
	return strings.Join(out, ".")
}

// IsSlice reports whether the last id segment names a slice. Type slices on
// choice elements are not slices.
func (ed *ElementDefinition) IsSlice() bool {
	segments := splitID(ed.ID)
	base, slice, sliced := strings.Cut(segments[len(segments)-1], ":")
	return sliced && !isChoiceSlice(base, slice)
}

// IsChoiceSlice reports whether the last id segment is a type slice of a
// choice element, as in "value[x]:valueQuantity".
func (ed *ElementDefinition) IsChoiceSlice() bool {
	segments := splitID(ed.ID)
	base, slice, sliced := strings.Cut(segments[len(segments)-1], ":")
	return sliced && isChoiceSlice(base, slice)
}

// LastSliceName returns the innermost slice name of the last id segment.
func (ed *ElementDefinition) LastSliceName() string {
	segments := splitID(ed.ID)
	_, slice, _ := strings.Cut(segments[len(segments)-1], ":")
	if i := strings.LastIndexByte(slice, '/'); i >= 0 {
		return slice[i+1:]
	}
	return slice
}

// SlicedElementID returns the id of the element this slice belongs to.
// For "a.b:s/r" it returns "a.b:s"; for "a.b:s" it returns "a.b".
func (ed *ElementDefinition) SlicedElementID() string {
	segments := splitID(ed.ID)
	last := segments[len(segments)-1]
	base, slice, _ := strings.Cut(last, ":")
	if i := strings.LastIndexByte(slice, '/'); i >= 0 {
		last = base + ":" + slice[:i]
	} else {
		last = base
	}
	segments[len(segments)-1] = last
	return strings.Join(segments, ".")
}

// UnslicedID drops every slice marker from the id. Choice type markers are
// dropped too, so "value[x]:valueString" maps back to "value[x]".
func UnslicedID(id string) string {
	segments := splitID(id)
	for i, seg := range segments {
		if base, _, sliced := strings.Cut(seg, ":"); sliced {
			segments[i] = base
		}
	}
	return strings.Join(segments, ".")
}

// ParentID returns the id of the containing element, or "" for the root.
func ParentID(id string) string {
	segments := splitID(id)
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], ".")
}

func splitID(id string) []string {
	return strings.Split(id, ".")
}

func isChoiceSlice(base, slice string) bool {
	prefix, ok := strings.CutSuffix(base, "[x]")
	if !ok || !strings.HasPrefix(slice, prefix) || len(slice) == len(prefix) {
		return false
	}
	return unicode.IsUpper(rune(slice[len(prefix)]))
}
