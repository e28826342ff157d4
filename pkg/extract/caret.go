package extract

import (
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// carets emits one caret rule per attribute no other extractor consumed,
// skipping values the element inherits unchanged. It consumes every
// remaining key.
func (d *Definition) carets(e *element) []exportable.Rule {
	var rules []exportable.Rule
	inheritedTops := make(map[string]map[string]any)

	for _, entry := range e.Unprocessed() {
		e.MarkProcessed(entry.Key)
		top := topKey(entry.Key)
		if d.unchanged(e, top) {
			continue
		}
		if entry.IsEmptyContainer() {
			d.ctx.dropEmpty(d.source(), e.path+" ^"+entry.Key)
			continue
		}

		wrapped, ok := inheritedTops[top]
		if !ok {
			if old, found := d.inherited(e, top); found {
				wrapped = map[string]any{top: old}
			}
			inheritedTops[top] = wrapped
		}
		if wrapped != nil {
			if old, found := fhirtypes.Lookup(wrapped, entry.Key); found && fhirtypes.Equal(old, entry.Value) {
				continue
			}
		}

		typ := d.ctx.Types.TypeOf("ElementDefinition", entry.Key)
		rules = append(rules, &exportable.CaretValueRule{
			Path:      e.path,
			CaretPath: entry.Key,
			Value:     d.ctx.value(d.source(), e.path+" ^"+entry.Key, typ, entry.Value),
		})
	}
	return rules
}

// EntityCarets emits caret rules for the top-level attributes of a
// definition document. skip reports keys already expressed elsewhere.
func (c *Context) EntityCarets(doc map[string]any, resourceType, source string, skip func(key string) bool) []exportable.Rule {
	var rules []exportable.Rule
	for _, entry := range fhirtypes.Flatten(doc) {
		if skip != nil && skip(entry.Key) {
			continue
		}
		if entry.IsEmptyContainer() {
			c.dropEmpty(source, "^"+entry.Key)
			continue
		}
		typ := c.Types.TypeOf(resourceType, entry.Key)
		rules = append(rules, &exportable.CaretValueRule{
			CaretPath: entry.Key,
			Value:     c.value(source, "^"+entry.Key, typ, entry.Value),
		})
	}
	return rules
}
