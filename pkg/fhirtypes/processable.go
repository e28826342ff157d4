package fhirtypes

import "strings"

// ProcessableElementDefinition wraps an element with the set of attribute
// keys already expressed by a rule. Every flattened key is consumed exactly
// once, either by a specific extractor or by the generic caret extractor.
type ProcessableElementDefinition struct {
	*ElementDefinition

	entries   []FlatEntry
	processed map[string]bool
}

// NewProcessableElementDefinition wraps ed. The identity keys id and path
// are consumed from the start.
func NewProcessableElementDefinition(ed *ElementDefinition) *ProcessableElementDefinition {
	p := &ProcessableElementDefinition{
		ElementDefinition: ed,
		entries:           Flatten(ed.Raw),
		processed:         make(map[string]bool),
	}
	p.MarkProcessed("id", "path")
	return p
}

// Entries returns all flattened attribute keys of the element.
func (p *ProcessableElementDefinition) Entries() []FlatEntry {
	return p.entries
}

// MarkProcessed consumes the given keys.
func (p *ProcessableElementDefinition) MarkProcessed(keys ...string) {
	for _, k := range keys {
		p.processed[k] = true
	}
}

// MarkProcessedPrefix consumes every key at or below prefix.
func (p *ProcessableElementDefinition) MarkProcessedPrefix(prefix string) {
	for _, e := range p.entries {
		if HasKeyPrefix(e.Key, prefix) {
			p.processed[e.Key] = true
		}
	}
}

// IsProcessed reports whether key has been consumed.
func (p *ProcessableElementDefinition) IsProcessed(key string) bool {
	return p.processed[key]
}

// Unprocessed returns the entries no extractor has consumed yet.
func (p *ProcessableElementDefinition) Unprocessed() []FlatEntry {
	var out []FlatEntry
	for _, e := range p.entries {
		if !p.processed[e.Key] {
			out = append(out, e)
		}
	}
	return out
}

// HasKeyPrefix reports whether key equals prefix or lies below it.
func HasKeyPrefix(key, prefix string) bool {
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	if len(key) == len(prefix) {
		return true
	}
	next := key[len(prefix)]
	return next == '.' || next == '['
}
