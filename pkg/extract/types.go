package extract

import (
	"strings"

	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// primitiveTypes lists the FHIR primitive type codes.
var primitiveTypes = map[string]bool{
	"base64Binary": true, "boolean": true, "canonical": true, "code": true,
	"date": true, "dateTime": true, "decimal": true, "id": true,
	"instant": true, "integer": true, "integer64": true, "markdown": true,
	"oid": true, "positiveInt": true, "string": true, "time": true,
	"unsignedInt": true, "uri": true, "url": true, "uuid": true, "xhtml": true,
}

// knownTypes types common keys when no core definitions are available.
// Keys are index-free paths below the named type.
var knownTypes = map[string]string{
	"StructureDefinition.status":       "code",
	"StructureDefinition.kind":         "code",
	"StructureDefinition.derivation":   "code",
	"StructureDefinition.fhirVersion":  "code",
	"StructureDefinition.date":         "dateTime",
	"StructureDefinition.url":          "uri",
	"StructureDefinition.context.type": "code",

	"ElementDefinition.slicing.discriminator.type": "code",
	"ElementDefinition.slicing.rules":              "code",
	"ElementDefinition.binding.strength":           "code",
	"ElementDefinition.binding.valueSet":           "canonical",
	"ElementDefinition.constraint.severity":        "code",
	"ElementDefinition.constraint.source":          "canonical",
	"ElementDefinition.type.aggregation":           "code",
	"ElementDefinition.type.versioning":            "code",
	"ElementDefinition.type.code":                  "uri",
	"ElementDefinition.representation":             "code",

	"ValueSet.status":             "code",
	"ValueSet.date":               "dateTime",
	"CodeSystem.status":           "code",
	"CodeSystem.date":             "dateTime",
	"CodeSystem.content":          "code",
	"CodeSystem.hierarchyMeaning": "code",
}

// knownLeaves types common trailing segments regardless of the owning type.
var knownLeaves = map[string]string{
	"coding.code":   "code",
	"coding.system": "uri",
	"text.status":   "code",
	"status":        "code",
	"gender":        "code",
	"system":        "uri",
	"url":           "uri",
	"language":      "code",
	"date":          "dateTime",
	"reference":     "string",
}

// ValueTypes resolves the FHIR type of a flattened key below a type by
// walking snapshot definitions through the resolver.
type ValueTypes struct {
	resolver fhirtypes.Resolver
}

// NewValueTypes creates a type walker. resolver may be nil, in which case
// only the built-in tables are used.
func NewValueTypes(resolver fhirtypes.Resolver) *ValueTypes {
	return &ValueTypes{resolver: resolver}
}

// TypeOf returns the type code of key below root, or "" when unknown.
// TypeOf("ElementDefinition", "slicing.discriminator[0].type") is "code".
func (v *ValueTypes) TypeOf(root, key string) string {
	if t := v.walk(root, key); t != "" {
		return t
	}
	return fallbackType(root, key)
}

func (v *ValueTypes) structure(typ string) (*fhirtypes.StructureDefinition, bool) {
	if v.resolver == nil || typ == "" {
		return nil, false
	}
	meta, ok := v.resolver.FishForMetadata(typ, fhirtypes.FishResource, fhirtypes.FishDataType, fhirtypes.FishLogical)
	if !ok {
		return nil, false
	}
	return v.resolver.FishForStructureDefinition(meta.URL)
}

func (v *ValueTypes) walk(root, key string) string {
	sd, ok := v.structure(root)
	if !ok {
		return ""
	}
	segments := strings.Split(fhirtypes.StripIndices(key), ".")
	current := sd.Snapshot[0].Path

	for i, seg := range segments {
		ed, chosen := childElement(sd, current, seg)
		if ed == nil {
			return ""
		}
		if ref := fhirtypes.String(ed.Raw, "contentReference"); ref != "" {
			if _, after, ok := strings.Cut(ref, "#"); ok {
				if target, ok := sd.FindElementByPath(after); ok {
					ed = target
				}
			}
		}

		typ := chosen
		if typ == "" {
			if types := ed.Types(); len(types) == 1 {
				typ = normalizeTypeCode(types[0])
			}
		}
		if i == len(segments)-1 {
			return typ
		}

		if sd.HasChildren(ed.Path) {
			current = ed.Path
			continue
		}
		next, ok := v.structure(typ)
		if !ok {
			return ""
		}
		sd, current = next, next.Snapshot[0].Path
	}
	return ""
}

// childElement finds the child seg of path. For choice elements the chosen
// type is returned as well.
func childElement(sd *fhirtypes.StructureDefinition, path, seg string) (*fhirtypes.ElementDefinition, string) {
	if ed, ok := sd.FindElementByPath(path + "." + seg); ok {
		return ed, ""
	}
	prefix := path + "."
	for _, ed := range sd.Snapshot {
		base, ok := strings.CutSuffix(ed.Path, "[x]")
		if !ok || !strings.HasPrefix(base, prefix) {
			continue
		}
		name := base[len(prefix):]
		if strings.Contains(name, ".") || !strings.HasPrefix(seg, name) {
			continue
		}
		suffix := seg[len(name):]
		for _, t := range ed.Types() {
			if strings.EqualFold(t, suffix) && upperFirst(t) == suffix {
				return ed, t
			}
		}
	}
	return nil, ""
}

func fallbackType(root, key string) string {
	stripped := fhirtypes.StripIndices(key)
	if t, ok := knownTypes[root+"."+stripped]; ok {
		return t
	}
	segments := strings.Split(stripped, ".")
	if n := len(segments); n >= 2 {
		if t, ok := knownLeaves[segments[n-2]+"."+segments[n-1]]; ok {
			return t
		}
	}
	last := segments[len(segments)-1]
	if t, ok := knownLeaves[last]; ok {
		return t
	}
	if suffix, ok := strings.CutPrefix(last, "value"); ok && suffix != "" {
		if t := lowerFirst(suffix); primitiveTypes[t] {
			return t
		}
		return suffix
	}
	return ""
}

// normalizeTypeCode maps FHIRPath system types used on id and value
// elements to their FHIR primitive.
func normalizeTypeCode(code string) string {
	if rest, ok := strings.CutPrefix(code, "http://hl7.org/fhirpath/System."); ok {
		switch rest {
		case "String":
			return "string"
		case "Boolean":
			return "boolean"
		case "Integer":
			return "integer"
		case "Decimal":
			return "decimal"
		case "DateTime":
			return "dateTime"
		case "Date":
			return "date"
		case "Time":
			return "time"
		}
		return "string"
	}
	return code
}

// TypeFromSuffix turns the suffix of a choice key ("CodeableConcept",
// "DateTime") into a FHIR type code.
func TypeFromSuffix(suffix string) string {
	if t := lowerFirst(suffix); primitiveTypes[t] {
		return t
	}
	return suffix
}

// ConvertValue turns a raw JSON leaf into the FSH value for a target type.
func ConvertValue(typ string, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch typ {
	case "code":
		return fshtypes.Code{Code: s}
	case "canonical":
		return fshtypes.ParseCanonical(s)
	}
	return s
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
