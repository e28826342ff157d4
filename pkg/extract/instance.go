package extract

import (
	"strings"

	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/fshtypes"
)

// InstanceRules turns the content of an instance into assignment rules, one
// per leaf. Values are typed against the definition of resourceType;
// reference strings become Reference values on their parent element.
func (c *Context) InstanceRules(doc map[string]any, resourceType, source string, skip func(key string) bool) []exportable.Rule {
	var rules []exportable.Rule
	for _, entry := range fhirtypes.Flatten(doc) {
		if skip != nil && skip(entry.Key) {
			continue
		}
		if entry.IsEmptyContainer() {
			c.dropEmpty(source, entry.Key)
			continue
		}

		if parent, ok := strings.CutSuffix(entry.Key, ".reference"); ok {
			if s, isString := entry.Value.(string); isString {
				if t := c.Types.TypeOf(resourceType, parent); t == "" || t == "Reference" {
					rules = append(rules, &exportable.AssignmentRule{
						Path:  parent,
						Value: fshtypes.Reference{Reference: s},
					})
					continue
				}
			}
		}

		typ := c.Types.TypeOf(resourceType, entry.Key)
		rules = append(rules, &exportable.AssignmentRule{
			Path:  entry.Key,
			Value: c.value(source, entry.Key, typ, entry.Value),
		})
	}
	return rules
}
