package exportable

import (
	"fmt"
	"strings"

	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// Package aggregates everything one conversion run produces. It is not safe
// for concurrent mutation.
type Package struct {
	Profiles    []*Profile
	Extensions  []*Extension
	Logicals    []*Logical
	Resources   []*Resource
	Instances   []*Instance
	ValueSets   []*ValueSet
	CodeSystems []*CodeSystem
	Invariants  []*Invariant
	Mappings    []*Mapping
	Aliases     []*Alias

	Config *Configuration
}

// NewPackage returns an empty package.
func NewPackage() *Package {
	return &Package{}
}

// Add stores e in the collection for its kind. Aliases are de-duplicated by
// alias and url.
func (p *Package) Add(e Entity) {
	switch v := e.(type) {
	case *Profile:
		p.Profiles = append(p.Profiles, v)
	case *Extension:
		p.Extensions = append(p.Extensions, v)
	case *Logical:
		p.Logicals = append(p.Logicals, v)
	case *Resource:
		p.Resources = append(p.Resources, v)
	case *Instance:
		p.Instances = append(p.Instances, v)
	case *ValueSet:
		p.ValueSets = append(p.ValueSets, v)
	case *CodeSystem:
		p.CodeSystems = append(p.CodeSystems, v)
	case *Invariant:
		p.Invariants = append(p.Invariants, v)
	case *Mapping:
		p.Mappings = append(p.Mappings, v)
	case *Alias:
		for _, a := range p.Aliases {
			if a.Alias == v.Alias && a.URL == v.URL {
				return
			}
		}
		p.Aliases = append(p.Aliases, v)
	case *Configuration:
		p.Config = v
	}
}

// StructureDefinitions returns profiles, extensions, logicals and resources
// as rule owners in that order.
func (p *Package) StructureDefinitions() []RuleOwner {
	var out []RuleOwner
	for _, e := range p.Profiles {
		out = append(out, e)
	}
	for _, e := range p.Extensions {
		out = append(out, e)
	}
	for _, e := range p.Logicals {
		out = append(out, e)
	}
	for _, e := range p.Resources {
		out = append(out, e)
	}
	return out
}

// AllRuleOwners returns every entity that owns rules.
func (p *Package) AllRuleOwners() []RuleOwner {
	out := p.StructureDefinitions()
	for _, e := range p.Instances {
		out = append(out, e)
	}
	for _, e := range p.ValueSets {
		out = append(out, e)
	}
	for _, e := range p.CodeSystems {
		out = append(out, e)
	}
	for _, e := range p.Invariants {
		out = append(out, e)
	}
	for _, e := range p.Mappings {
		out = append(out, e)
	}
	return out
}

// FindAlias returns the alias registered for url, if any.
func (p *Package) FindAlias(url string) (string, bool) {
	for _, a := range p.Aliases {
		if a.URL == url {
			return a.Alias, true
		}
	}
	return "", false
}

// AliasFor returns the alias for url, registering a new one when needed.
// The token is derived from the last url segment; a dotted host keeps the
// part before the first dot, so http://loinc.org becomes $loinc. A token
// already taken by a different url gets a numeric suffix.
func (p *Package) AliasFor(url string) string {
	if alias, ok := p.FindAlias(url); ok {
		return alias
	}

	base := "$" + aliasToken(url)
	alias := base
	for n := 2; p.aliasTaken(alias); n++ {
		alias = fmt.Sprintf("%s-%d", base, n)
	}
	p.Aliases = append(p.Aliases, &Alias{Alias: alias, URL: url})
	return alias
}

func (p *Package) aliasTaken(alias string) bool {
	for _, a := range p.Aliases {
		if a.Alias == alias {
			return true
		}
	}
	return false
}

func aliasToken(url string) string {
	s := fhirtypes.StripVersion(url)
	isHost := false
	if _, rest, ok := strings.Cut(s, "://"); ok {
		rest = strings.TrimRight(rest, "/")
		isHost = !strings.Contains(rest, "/")
		s = rest
	} else {
		s = strings.TrimRight(s, "/")
	}

	seg := s
	if i := strings.LastIndexAny(seg, "/:"); i >= 0 {
		seg = seg[i+1:]
	}
	if isHost {
		seg = strings.TrimPrefix(seg, "www.")
		if host, _, ok := strings.Cut(seg, "."); ok && host != "" {
			seg = host
		}
	}

	var b strings.Builder
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "alias"
	}
	return b.String()
}

// File is one rendered FSH file.
type File struct {
	Name    string
	Content string
}

// Files renders the package into one file per entity kind. Empty kinds are
// omitted.
func (p *Package) Files() []File {
	var files []File
	add := func(name string, entities []Entity) {
		if len(entities) == 0 {
			return
		}
		parts := make([]string, len(entities))
		for i, e := range entities {
			parts[i] = e.FSH()
		}
		files = append(files, File{Name: name, Content: strings.Join(parts, "\n\n") + "\n"})
	}

	if len(p.Aliases) > 0 {
		lines := make([]string, len(p.Aliases))
		for i, a := range p.Aliases {
			lines[i] = a.FSH()
		}
		files = append(files, File{Name: "aliases.fsh", Content: strings.Join(lines, "\n") + "\n"})
	}

	add("profiles.fsh", entities(p.Profiles))
	add("extensions.fsh", entities(p.Extensions))
	add("logicals.fsh", entities(p.Logicals))
	add("resources.fsh", entities(p.Resources))
	add("valuesets.fsh", entities(p.ValueSets))
	add("codesystems.fsh", entities(p.CodeSystems))
	add("instances.fsh", entities(p.Instances))
	add("invariants.fsh", entities(p.Invariants))
	add("mappings.fsh", entities(p.Mappings))
	return files
}

func entities[E Entity](in []E) []Entity {
	out := make([]Entity, len(in))
	for i, e := range in {
		out[i] = e
	}
	return out
}
