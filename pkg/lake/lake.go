package lake

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
)

// GeneratedIDPrefix prefixes ids synthesized for definitions without an
// id or usable name.
const GeneratedIDPrefix = "gofsh-generated-id-"

var invalidIDChars = regexp.MustCompile(`[^A-Za-z0-9\-.]`)

// Lake holds the loaded documents in load order.
type Lake struct {
	docs   []*Document
	byKey  map[string]*Document
	lookup map[string][]*Document

	result      *gofsh.Result
	generatedID int
}

// New creates an empty Lake that records issues on result.
func New(result *gofsh.Result) *Lake {
	if result == nil {
		result = gofsh.NewResult()
	}
	l := &Lake{result: result}
	l.reindex()
	return l
}

// Add appends a document.
func (l *Lake) Add(doc *Document) {
	l.docs = append(l.docs, doc)
	l.index(doc)
}

// AddContent wraps content in a Document and appends it.
func (l *Lake) AddContent(content map[string]any, path string) *Document {
	doc := NewDocument(content, path)
	l.Add(doc)
	return doc
}

// LoadFile decodes one JSON file. Files that are not a FHIR resource are
// skipped and recorded as invalid input.
func (l *Lake) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	content, err := fhirtypes.Decode(data)
	if err != nil {
		l.result.Errorf(gofsh.IssueTypeInvalid, path, "could not parse JSON: %v", err)
		return nil
	}
	if fhirtypes.String(content, "resourceType") == "" {
		l.result.Errorf(gofsh.IssueTypeInvalid, path, "document has no resourceType and was skipped")
		return nil
	}
	l.AddContent(content, path)
	return nil
}

// LoadDir loads every .json file below dir in lexical order.
func (l *Lake) LoadDir(dir string) (int, error) {
	before := len(l.docs)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".json") || d.Name() == "package.json" {
			return nil
		}
		return l.LoadFile(path)
	})
	if err != nil {
		return len(l.docs) - before, fmt.Errorf("failed to load %s: %w", dir, err)
	}
	return len(l.docs) - before, nil
}

// Documents returns every document in load order.
func (l *Lake) Documents() []*Document {
	return l.docs
}

// Len returns the number of documents.
func (l *Lake) Len() int {
	return len(l.docs)
}

// Cleanup removes duplicates and assigns missing ids. It must run once,
// before any lookup.
func (l *Lake) Cleanup() {
	l.RemoveDuplicateDefinitions()
	l.AssignMissingIDs()
}

// RemoveDuplicateDefinitions drops documents whose resourceType and id
// repeat an earlier document, keeping the first. One aggregate message is
// recorded when anything was removed.
func (l *Lake) RemoveDuplicateDefinitions() int {
	seen := make(map[string]bool, len(l.docs))
	kept := l.docs[:0]
	var removed []string
	for _, doc := range l.docs {
		if doc.ID() == "" {
			kept = append(kept, doc)
			continue
		}
		key := doc.Key()
		if seen[key] {
			removed = append(removed, key)
			continue
		}
		seen[key] = true
		kept = append(kept, doc)
	}
	for i := len(kept); i < len(l.docs); i++ {
		l.docs[i] = nil
	}
	l.docs = kept

	if len(removed) > 0 {
		l.result.Warnf(gofsh.IssueTypeDuplicate, "",
			"Removed %d duplicate definition(s) with the same resourceType and id; the first occurrence was kept: %s",
			len(removed), strings.Join(removed, ", "))
		l.reindex()
	}
	return len(removed)
}

// AssignMissingIDs gives every document without an id one derived from its
// name, or from the generated id counter when the name is unusable or
// already taken. One aggregate message is recorded.
func (l *Lake) AssignMissingIDs() int {
	taken := make(map[string]bool, len(l.docs))
	for _, doc := range l.docs {
		if doc.ID() != "" {
			taken[doc.Key()] = true
		}
	}

	assigned := 0
	for _, doc := range l.docs {
		if doc.ID() != "" {
			continue
		}
		id := NormalizeID(doc.Name())
		if id == "" || taken[doc.ResourceType()+"/"+id] {
			id = l.nextGeneratedID(doc.ResourceType(), taken)
		}
		doc.Content["id"] = id
		taken[doc.Key()] = true
		assigned++
	}

	if assigned > 0 {
		l.result.Infof("", "Assigned ids to %d definition(s) without an id", assigned)
		l.reindex()
	}
	return assigned
}

func (l *Lake) nextGeneratedID(resourceType string, taken map[string]bool) string {
	for {
		id := GeneratedIDPrefix + strconv.Itoa(l.generatedID)
		l.generatedID++
		if !taken[resourceType+"/"+id] {
			return id
		}
	}
}

// NormalizeID turns a name into a valid FHIR id, or "" if nothing usable
// remains.
func NormalizeID(name string) string {
	id := invalidIDChars.ReplaceAllString(strings.TrimSpace(name), "-")
	id = strings.Trim(id, "-")
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

func (l *Lake) reindex() {
	l.byKey = make(map[string]*Document, len(l.docs))
	l.lookup = make(map[string][]*Document, len(l.docs)*3)
	for _, doc := range l.docs {
		l.index(doc)
	}
}

func (l *Lake) index(doc *Document) {
	if doc.ID() != "" {
		if _, exists := l.byKey[doc.Key()]; !exists {
			l.byKey[doc.Key()] = doc
		}
	}
	seen := make(map[string]bool, 3)
	for _, k := range []string{doc.ID(), doc.Name(), fhirtypes.StripVersion(doc.URL())} {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		l.lookup[k] = append(l.lookup[k], doc)
	}
}

// Get returns the document with the given resourceType and id.
func (l *Lake) Get(resourceType, id string) (*Document, bool) {
	doc, ok := l.byKey[resourceType+"/"+id]
	return doc, ok
}
