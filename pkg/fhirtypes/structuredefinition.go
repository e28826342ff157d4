package fhirtypes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSnapshot is returned when a StructureDefinition has no snapshot.
var ErrNoSnapshot = errors.New("structure definition has no snapshot")

// ExtensionContext defines where an extension can be used.
type ExtensionContext struct {
	Type       string
	Expression string
}

// DefinitionMapping is a StructureDefinition.mapping entry.
type DefinitionMapping struct {
	Identity string
	URI      string
	Name     string
	Comment  string
}

// StructureDefinition is a parsed view over a StructureDefinition document.
// Elements keep their raw JSON so every attribute stays reachable.
type StructureDefinition struct {
	ID             string
	URL            string
	Name           string
	Title          string
	Description    string
	Type           string
	Kind           string
	Derivation     string
	BaseDefinition string
	Abstract       bool

	Context  []ExtensionContext
	Mappings []DefinitionMapping

	Differential []*ElementDefinition
	Snapshot     []*ElementDefinition

	Raw map[string]any

	snapshotByID map[string]*ElementDefinition
	diffByID     map[string]*ElementDefinition
}

// NewStructureDefinition parses doc. requireSnapshot rejects documents that
// carry no snapshot elements.
func NewStructureDefinition(doc map[string]any, requireSnapshot bool) (*StructureDefinition, error) {
	if rt := String(doc, "resourceType"); rt != "StructureDefinition" {
		return nil, fmt.Errorf("expected StructureDefinition, got %q", rt)
	}

	sd := &StructureDefinition{
		ID:             String(doc, "id"),
		URL:            String(doc, "url"),
		Name:           String(doc, "name"),
		Title:          String(doc, "title"),
		Description:    String(doc, "description"),
		Type:           String(doc, "type"),
		Kind:           String(doc, "kind"),
		Derivation:     String(doc, "derivation"),
		BaseDefinition: String(doc, "baseDefinition"),
		Raw:            doc,
		snapshotByID:   make(map[string]*ElementDefinition),
		diffByID:       make(map[string]*ElementDefinition),
	}
	sd.Abstract, _ = doc["abstract"].(bool)

	for _, c := range Objects(doc["context"]) {
		sd.Context = append(sd.Context, ExtensionContext{
			Type:       String(c, "type"),
			Expression: String(c, "expression"),
		})
	}
	for _, m := range Objects(doc["mapping"]) {
		sd.Mappings = append(sd.Mappings, DefinitionMapping{
			Identity: String(m, "identity"),
			URI:      String(m, "uri"),
			Name:     String(m, "name"),
			Comment:  String(m, "comment"),
		})
	}

	var err error
	if sd.Snapshot, err = parseElements(doc, "snapshot", sd); err != nil {
		return nil, err
	}
	if sd.Differential, err = parseElements(doc, "differential", sd); err != nil {
		return nil, err
	}
	if requireSnapshot && len(sd.Snapshot) == 0 {
		return nil, ErrNoSnapshot
	}

	for _, ed := range sd.Snapshot {
		if _, exists := sd.snapshotByID[ed.ID]; !exists {
			sd.snapshotByID[ed.ID] = ed
		}
	}
	for _, ed := range sd.Differential {
		if _, exists := sd.diffByID[ed.ID]; !exists {
			sd.diffByID[ed.ID] = ed
		}
	}
	return sd, nil
}

func parseElements(doc map[string]any, section string, sd *StructureDefinition) ([]*ElementDefinition, error) {
	container, ok := doc[section].(map[string]any)
	if !ok {
		return nil, nil
	}
	raw, ok := container["element"].([]any)
	if !ok {
		return nil, nil
	}
	elements := make([]*ElementDefinition, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.element[%d] is not an object", section, i)
		}
		ed := NewElementDefinition(m)
		if ed.ID == "" {
			return nil, fmt.Errorf("%s.element[%d] has neither id nor path", section, i)
		}
		elements = append(elements, ed)
	}
	return elements, nil
}

// FindElement returns the snapshot element with the given id.
func (sd *StructureDefinition) FindElement(id string) (*ElementDefinition, bool) {
	ed, ok := sd.snapshotByID[id]
	return ed, ok
}

// FindDifferentialElement returns the differential element with the given id.
func (sd *StructureDefinition) FindDifferentialElement(id string) (*ElementDefinition, bool) {
	ed, ok := sd.diffByID[id]
	return ed, ok
}

// FindElementByPath returns the first snapshot element with the given path.
func (sd *StructureDefinition) FindElementByPath(path string) (*ElementDefinition, bool) {
	for _, ed := range sd.Snapshot {
		if ed.Path == path {
			return ed, true
		}
	}
	return nil, false
}

// HasChildren reports whether the snapshot defines children below path.
func (sd *StructureDefinition) HasChildren(path string) bool {
	prefix := path + "."
	for _, ed := range sd.Snapshot {
		if strings.HasPrefix(ed.Path, prefix) {
			return true
		}
	}
	return false
}

// Rebase rewrites an element id rooted at another type so that it is rooted
// at this definition's root element. "Element.id" becomes "MyModel.id".
func (sd *StructureDefinition) Rebase(id string) string {
	root := sd.RootID()
	head, rest, found := strings.Cut(id, ".")
	if !found {
		return root
	}
	if head == root {
		return id
	}
	return root + "." + rest
}

// RootID returns the id of the root element, falling back to the type.
func (sd *StructureDefinition) RootID() string {
	for _, elements := range [][]*ElementDefinition{sd.Snapshot, sd.Differential} {
		if len(elements) > 0 {
			root, _, _ := strings.Cut(elements[0].ID, ".")
			return root
		}
	}
	return sd.Type
}
