package fhirtypes

import "strings"

// FishType narrows a lookup to one kind of definition.
type FishType string

// Fishable kinds.
const (
	FishResource   FishType = "Resource"
	FishDataType   FishType = "Type"
	FishProfile    FishType = "Profile"
	FishExtension  FishType = "Extension"
	FishLogical    FishType = "Logical"
	FishValueSet   FishType = "ValueSet"
	FishCodeSystem FishType = "CodeSystem"
	FishInstance   FishType = "Instance"
)

// StructureDefinitionTypes lists the kinds backed by a StructureDefinition.
var StructureDefinitionTypes = []FishType{FishResource, FishDataType, FishProfile, FishExtension, FishLogical}

// Metadata is the summary returned by FishForMetadata.
type Metadata struct {
	ID           string
	Name         string
	URL          string
	SDType       string
	Parent       string
	ResourceType string
	Kind         string
	Abstract     bool
	FishType     FishType
}

// Fishable resolves a name, id or canonical url to a known definition.
// Lookups never fail with an error; a miss returns ok == false.
type Fishable interface {
	FishForFHIR(item string, types ...FishType) (map[string]any, bool)
	FishForMetadata(item string, types ...FishType) (Metadata, bool)
}

// MatchesType reports whether t is allowed by the filter. An empty filter
// allows every kind.
func MatchesType(t FishType, types []FishType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

// StripVersion removes a trailing "|version" from a canonical url.
func StripVersion(url string) string {
	if i := strings.IndexByte(url, '|'); i >= 0 {
		return url[:i]
	}
	return url
}

// Classify determines the FishType of a StructureDefinition document.
// Terminology and other resources are classified by the definition store.
func Classify(doc map[string]any) FishType {
	if String(doc, "resourceType") != "StructureDefinition" {
		return FishInstance
	}
	switch {
	case String(doc, "derivation") == "constraint" && String(doc, "type") == "Extension":
		return FishExtension
	case String(doc, "derivation") == "constraint":
		return FishProfile
	case String(doc, "kind") == "logical":
		return FishLogical
	case String(doc, "kind") == "resource":
		return FishResource
	default:
		return FishDataType
	}
}

// MetadataOf builds the summary of a decoded document.
func MetadataOf(doc map[string]any, t FishType) Metadata {
	abstract, _ := doc["abstract"].(bool)
	return Metadata{
		ID:           String(doc, "id"),
		Name:         String(doc, "name"),
		URL:          String(doc, "url"),
		SDType:       String(doc, "type"),
		Parent:       String(doc, "baseDefinition"),
		ResourceType: String(doc, "resourceType"),
		Kind:         String(doc, "kind"),
		Abstract:     abstract,
		FishType:     t,
	}
}

// String returns the string stored under key, or "".
func String(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Resolver is a Fishable that can also parse StructureDefinitions with a
// snapshot. Documents without a snapshot or that fail to parse are reported
// as not found.
type Resolver interface {
	Fishable
	FishForStructureDefinition(item string) (*StructureDefinition, bool)
}
