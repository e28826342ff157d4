package exportable

import (
	"bytes"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Configuration is the sushi-config.yaml describing the generated project.
type Configuration struct {
	ID                           string            `yaml:"id,omitempty"`
	Canonical                    string            `yaml:"canonical"`
	Name                         string            `yaml:"name,omitempty"`
	Title                        string            `yaml:"title,omitempty"`
	Status                       string            `yaml:"status,omitempty"`
	Version                      string            `yaml:"version,omitempty"`
	FHIRVersion                  string            `yaml:"fhirVersion"`
	Publisher                    *Publisher        `yaml:"publisher,omitempty"`
	Dependencies                 map[string]string `yaml:"dependencies,omitempty"`
	FSHOnly                      bool              `yaml:"FSHOnly"`
	ApplyExtensionMetadataToRoot bool              `yaml:"applyExtensionMetadataToRoot"`
}

// Publisher names the publishing organization.
type Publisher struct {
	Name  string `yaml:"name,omitempty"`
	URL   string `yaml:"url,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// EntityName implements Entity.
func (c *Configuration) EntityName() string { return c.ID }

// FSH implements Entity. A configuration has no FSH form; it renders as a
// comment naming the canonical.
func (c *Configuration) FSH() string {
	return "// canonical: " + c.Canonical
}

// YAML renders the configuration file.
func (c *Configuration) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}
