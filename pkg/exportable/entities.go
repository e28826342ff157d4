package exportable

import (
	"strings"

	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// Entity is anything a Package holds.
type Entity interface {
	EntityName() string
	FSH() string
}

// RuleOwner is an entity with an ordered rule list. Order is significant:
// later rules may refine earlier ones.
type RuleOwner interface {
	Entity
	RuleList() *[]Rule
}

// Metadata is the keyword header shared by most entities.
type Metadata struct {
	Name        string
	ID          string
	Title       string
	Description string
}

// Context is an extension context.
type Context struct {
	Type       string
	Expression string
}

func (c Context) fsh() string {
	if c.Type == "fhirpath" {
		return fshtypes.Quote(c.Expression)
	}
	return c.Expression
}

// Profile constrains a resource or data type.
type Profile struct {
	Metadata
	Parent string
	Rules  []Rule
}

// Extension defines an extension.
type Extension struct {
	Metadata
	Parent   string
	Contexts []Context
	Rules    []Rule
}

// Logical defines a logical model.
type Logical struct {
	Metadata
	Parent          string
	Characteristics []string
	Rules           []Rule
}

// Resource defines a new resource.
type Resource struct {
	Metadata
	Parent string
	Rules  []Rule
}

// Instance is an example or definitional record.
type Instance struct {
	Metadata
	InstanceOf string
	Usage      string
	Rules      []Rule
}

// ValueSet defines a value set.
type ValueSet struct {
	Metadata
	Rules []Rule
}

// CodeSystem defines a code system.
type CodeSystem struct {
	Metadata
	Rules []Rule
}

// Invariant is a named constraint referenced by ObeysRules.
type Invariant struct {
	Name        string
	Description string
	Severity    string
	Expression  string
	XPath       string
	Rules       []Rule
}

// Mapping maps the elements of a definition to another specification.
type Mapping struct {
	Name        string
	ID          string
	Source      string
	Target      string
	Title       string
	Description string
	Rules       []Rule
}

// Alias binds a short token to a url.
type Alias struct {
	Alias string
	URL   string
}

// EntityName implements Entity.
func (e *Profile) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *Extension) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *Logical) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *Resource) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *Instance) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *ValueSet) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *CodeSystem) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *Invariant) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *Mapping) EntityName() string { return e.Name }

// EntityName implements Entity.
func (e *Alias) EntityName() string { return e.Alias }

// RuleList implements RuleOwner.
func (e *Profile) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *Extension) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *Logical) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *Resource) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *Instance) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *ValueSet) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *CodeSystem) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *Invariant) RuleList() *[]Rule { return &e.Rules }

// RuleList implements RuleOwner.
func (e *Mapping) RuleList() *[]Rule { return &e.Rules }

type header struct {
	b strings.Builder
}

func (h *header) line(keyword, value string) {
	if value == "" {
		return
	}
	h.b.WriteString(keyword)
	h.b.WriteString(": ")
	h.b.WriteString(value)
	h.b.WriteByte('\n')
}

func (h *header) metadata(m Metadata) {
	h.line("Id", m.ID)
	if m.Title != "" {
		h.line("Title", fshtypes.Quote(m.Title))
	}
	if m.Description != "" {
		h.line("Description", fshtypes.Quote(m.Description))
	}
}

func (h *header) rules(rules []Rule) string {
	for _, r := range rules {
		h.b.WriteString(r.FSH())
		h.b.WriteByte('\n')
	}
	return strings.TrimSuffix(h.b.String(), "\n")
}

// FSH implements Entity.
func (e *Profile) FSH() string {
	var h header
	h.line("Profile", e.Name)
	h.line("Parent", e.Parent)
	h.metadata(e.Metadata)
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *Extension) FSH() string {
	var h header
	h.line("Extension", e.Name)
	h.line("Parent", e.Parent)
	h.metadata(e.Metadata)
	if len(e.Contexts) > 0 {
		contexts := make([]string, len(e.Contexts))
		for i, c := range e.Contexts {
			contexts[i] = c.fsh()
		}
		h.line("Context", strings.Join(contexts, ", "))
	}
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *Logical) FSH() string {
	var h header
	h.line("Logical", e.Name)
	h.line("Parent", e.Parent)
	h.metadata(e.Metadata)
	if len(e.Characteristics) > 0 {
		chars := make([]string, len(e.Characteristics))
		for i, c := range e.Characteristics {
			chars[i] = "#" + c
		}
		h.line("Characteristics", strings.Join(chars, ", "))
	}
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *Resource) FSH() string {
	var h header
	h.line("Resource", e.Name)
	h.line("Parent", e.Parent)
	h.metadata(e.Metadata)
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *Instance) FSH() string {
	var h header
	h.line("Instance", e.Name)
	h.line("InstanceOf", e.InstanceOf)
	if e.Usage != "" {
		h.line("Usage", "#"+e.Usage)
	}
	md := e.Metadata
	if md.ID == e.Name {
		md.ID = ""
	}
	h.metadata(md)
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *ValueSet) FSH() string {
	var h header
	h.line("ValueSet", e.Name)
	h.metadata(e.Metadata)
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *CodeSystem) FSH() string {
	var h header
	h.line("CodeSystem", e.Name)
	h.metadata(e.Metadata)
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *Invariant) FSH() string {
	var h header
	h.line("Invariant", e.Name)
	if e.Description != "" {
		h.line("Description", fshtypes.Quote(e.Description))
	}
	if e.Severity != "" {
		h.line("Severity", "#"+e.Severity)
	}
	if e.Expression != "" {
		h.line("Expression", fshtypes.Quote(e.Expression))
	}
	if e.XPath != "" {
		h.line("XPath", fshtypes.Quote(e.XPath))
	}
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *Mapping) FSH() string {
	var h header
	h.line("Mapping", e.Name)
	h.line("Source", e.Source)
	if e.Target != "" {
		h.line("Target", fshtypes.Quote(e.Target))
	}
	h.line("Id", e.ID)
	if e.Title != "" {
		h.line("Title", fshtypes.Quote(e.Title))
	}
	if e.Description != "" {
		h.line("Description", fshtypes.Quote(e.Description))
	}
	return h.rules(e.Rules)
}

// FSH implements Entity.
func (e *Alias) FSH() string {
	return "Alias: " + e.Alias + " = " + e.URL
}
