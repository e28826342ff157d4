// Package fshtypes holds the structured values FSH rules assign: codes,
// quantities, references and canonicals.
package fshtypes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UCUM is the canonical units-of-measure code system.
const UCUM = "http://unitsofmeasure.org"

// Code is a coded value: system#code "display".
type Code struct {
	Code    string
	System  string
	Display string
}

// FSH renders the code.
func (c Code) FSH() string {
	var b strings.Builder
	b.WriteString(c.System)
	b.WriteByte('#')
	if strings.ContainsAny(c.Code, " \t") {
		b.WriteString(Quote(c.Code))
	} else {
		b.WriteString(c.Code)
	}
	if c.Display != "" {
		b.WriteByte(' ')
		b.WriteString(Quote(c.Display))
	}
	return b.String()
}

// Quantity is a decimal value with an optional coded unit.
type Quantity struct {
	Value json.Number
	Unit  *Code
}

// FSH renders the quantity. UCUM units use the 'unit' shorthand.
func (q Quantity) FSH() string {
	s := q.Value.String()
	if q.Unit == nil {
		return s
	}
	if q.Unit.System == UCUM {
		s += " '" + q.Unit.Code + "'"
		if q.Unit.Display != "" {
			s += " " + Quote(q.Unit.Display)
		}
		return s
	}
	return s + " " + q.Unit.FSH()
}

// Reference points at another resource.
type Reference struct {
	Reference string
	Display   string
}

// FSH renders the reference.
func (r Reference) FSH() string {
	s := "Reference(" + r.Reference + ")"
	if r.Display != "" {
		s += " " + Quote(r.Display)
	}
	return s
}

// Canonical points at a definition by name or url.
type Canonical struct {
	EntityName string
	Version    string
}

// FSH renders the canonical. A canonical still holding a url renders as the
// plain url string.
func (c Canonical) FSH() string {
	if IsURL(c.EntityName) {
		if c.Version != "" {
			return Quote(c.EntityName + "|" + c.Version)
		}
		return Quote(c.EntityName)
	}
	if c.Version != "" {
		return "Canonical(" + c.EntityName + "|" + c.Version + ")"
	}
	return "Canonical(" + c.EntityName + ")"
}

// ParseCanonical splits "url|version".
func ParseCanonical(s string) Canonical {
	name, version, _ := strings.Cut(s, "|")
	return Canonical{EntityName: name, Version: version}
}

// IsURL reports whether s looks like an absolute url or urn.
func IsURL(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "urn:")
}

// InstanceRef assigns another instance by name.
type InstanceRef string

// Quote renders s as an FSH string literal. Multi-line text uses the
// triple-quote form.
func Quote(s string) string {
	if strings.Contains(s, "\n") && !strings.Contains(s, `"""`) {
		return `"""` + s + `"""`
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// Format renders any rule value.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case InstanceRef:
		return string(val)
	case interface{ FSH() string }:
		return val.FSH()
	default:
		return fmt.Sprintf("%v", val)
	}
}
