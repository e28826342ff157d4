package fhirtypes

import (
	"sort"
	"strconv"
	"strings"
)

// FlatEntry is one leaf of a flattened JSON object. Keys use dotted and
// bracketed notation, e.g. "binding.strength" or "type[0].profile[1]".
type FlatEntry struct {
	Key   string
	Value any
}

// IsEmptyContainer reports whether the leaf is an empty array or object.
// Such values cannot be expressed as an assignment.
func (e FlatEntry) IsEmptyContainer() bool {
	switch v := e.Value.(type) {
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// Flatten walks obj and returns its leaves in a stable order. Primitive
// extension keys ("_birthDate") are folded onto their element name.
func Flatten(obj map[string]any) []FlatEntry {
	var out []FlatEntry
	flattenObject("", obj, &out)
	return out
}

// FlattenValue flattens v below prefix. A primitive yields a single entry
// keyed by prefix.
func FlattenValue(prefix string, v any) []FlatEntry {
	var out []FlatEntry
	flattenAny(prefix, v, &out)
	return out
}

func flattenObject(prefix string, obj map[string]any, out *[]FlatEntry) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := strings.TrimPrefix(keys[i], "_"), strings.TrimPrefix(keys[j], "_")
		if a != b {
			return a < b
		}
		return !strings.HasPrefix(keys[i], "_")
	})

	for _, k := range keys {
		flattenAny(joinKey(prefix, strings.TrimPrefix(k, "_")), obj[k], out)
	}
}

func flattenAny(key string, v any, out *[]FlatEntry) {
	switch val := v.(type) {
	case nil:
		return
	case map[string]any:
		if len(val) == 0 {
			*out = append(*out, FlatEntry{Key: key, Value: val})
			return
		}
		flattenObject(key, val, out)
	case []any:
		if len(val) == 0 {
			*out = append(*out, FlatEntry{Key: key, Value: val})
			return
		}
		for i, item := range val {
			flattenAny(key+"["+strconv.Itoa(i)+"]", item, out)
		}
	default:
		*out = append(*out, FlatEntry{Key: key, Value: val})
	}
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Lookup finds the leaf at key inside obj using the same notation as Flatten.
func Lookup(obj map[string]any, key string) (any, bool) {
	for _, e := range Flatten(obj) {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// StripIndices removes array indices from a flattened key:
// "code.coding[0].system" becomes "code.coding.system".
func StripIndices(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	depth := 0
	for _, r := range key {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
