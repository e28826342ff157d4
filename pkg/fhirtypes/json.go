package fhirtypes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Decode decodes a JSON object keeping numbers as json.Number so that
// decimal precision survives the round trip.
func Decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	return doc, nil
}

// Objects returns the objects of a JSON array, skipping anything else.
func Objects(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Strings returns the strings of a JSON array, skipping anything else.
func Strings(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Equal compares two decoded JSON values.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
