package processor

import (
	"strings"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/fhirtypes"
	"github.com/gofhir/gofsh/pkg/lake"
	"github.com/gofhir/gofsh/pkg/loader"
)

// DefaultCanonical is used when neither the options nor an
// ImplementationGuide supply one.
const DefaultCanonical = "http://example.org"

// ProcessConfig builds the project configuration. Values come from the
// first ImplementationGuide in l when there is one; dependencies and the
// canonical from opts take precedence.
func ProcessConfig(l *lake.Lake, dependencies []string, opts *gofsh.Options) *exportable.Configuration {
	if opts == nil {
		opts = gofsh.DefaultOptions()
	}
	cfg := &exportable.Configuration{
		Canonical:   DefaultCanonical,
		FHIRVersion: opts.FHIRVersion.Number(),
		FSHOnly:     true,
	}

	if ig := l.ImplementationGuide(); ig != nil {
		applyImplementationGuide(cfg, ig.Content)
	}
	if opts.Canonical != "" {
		cfg.Canonical = opts.Canonical
	}

	for _, dep := range dependencies {
		ref := loader.ParsePackageRef(dep)
		if ref.Name == "" || isCorePackage(ref.Name) {
			continue
		}
		if cfg.Dependencies == nil {
			cfg.Dependencies = make(map[string]string)
		}
		version := ref.Version
		if version == "" {
			version = "latest"
		}
		cfg.Dependencies[ref.Name] = version
	}
	return cfg
}

func applyImplementationGuide(cfg *exportable.Configuration, ig map[string]any) {
	cfg.ID = fhirtypes.String(ig, "packageId")
	if cfg.ID == "" {
		cfg.ID = fhirtypes.String(ig, "id")
	}
	if url := fhirtypes.String(ig, "url"); url != "" {
		if i := strings.Index(url, "/ImplementationGuide/"); i >= 0 {
			url = url[:i]
		}
		cfg.Canonical = url
	}
	cfg.Name = fhirtypes.String(ig, "name")
	cfg.Title = fhirtypes.String(ig, "title")
	cfg.Status = fhirtypes.String(ig, "status")
	cfg.Version = fhirtypes.String(ig, "version")
	if versions := fhirtypes.Strings(ig["fhirVersion"]); len(versions) > 0 {
		cfg.FHIRVersion = versions[0]
	}
	if name := fhirtypes.String(ig, "publisher"); name != "" {
		cfg.Publisher = &exportable.Publisher{Name: name}
		for _, contact := range fhirtypes.Objects(ig["contact"]) {
			for _, telecom := range fhirtypes.Objects(contact["telecom"]) {
				switch fhirtypes.String(telecom, "system") {
				case "url":
					if cfg.Publisher.URL == "" {
						cfg.Publisher.URL = fhirtypes.String(telecom, "value")
					}
				case "email":
					if cfg.Publisher.Email == "" {
						cfg.Publisher.Email = fhirtypes.String(telecom, "value")
					}
				}
			}
		}
	}
	for _, dep := range fhirtypes.Objects(ig["dependsOn"]) {
		name := fhirtypes.String(dep, "packageId")
		if name == "" || isCorePackage(name) {
			continue
		}
		if cfg.Dependencies == nil {
			cfg.Dependencies = make(map[string]string)
		}
		cfg.Dependencies[name] = fhirtypes.String(dep, "version")
	}
}

func isCorePackage(name string) bool {
	return strings.HasPrefix(name, "hl7.fhir.r") && strings.HasSuffix(name, ".core")
}
