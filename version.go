package gofsh

// FHIRVersion represents a FHIR specification version.
type FHIRVersion string

// Supported FHIR versions.
const (
	// R4 is FHIR Release 4 (4.0.1)
	R4 FHIRVersion = "R4"
	// R4B is FHIR Release 4B (4.3.0)
	R4B FHIRVersion = "R4B"
	// R5 is FHIR Release 5 (5.0.0)
	R5 FHIRVersion = "R5"
)

// String returns the version string.
func (v FHIRVersion) String() string {
	return string(v)
}

// IsValid returns true if this is a supported FHIR version.
func (v FHIRVersion) IsValid() bool {
	_, ok := versionConfigs[v]
	return ok
}

// versionConfig holds version-specific package configuration.
type versionConfig struct {
	CorePackageName    string
	CorePackageVersion string
	FHIRVersionString  string
}

var versionConfigs = map[FHIRVersion]versionConfig{
	R4: {
		CorePackageName:    "hl7.fhir.r4.core",
		CorePackageVersion: "4.0.1",
		FHIRVersionString:  "4.0.1",
	},
	R4B: {
		CorePackageName:    "hl7.fhir.r4b.core",
		CorePackageVersion: "4.3.0",
		FHIRVersionString:  "4.3.0",
	},
	R5: {
		CorePackageName:    "hl7.fhir.r5.core",
		CorePackageVersion: "5.0.0",
		FHIRVersionString:  "5.0.0",
	},
}

// CorePackage returns the core package reference ("name#version") for v.
func (v FHIRVersion) CorePackage() string {
	cfg, ok := versionConfigs[v]
	if !ok {
		cfg = versionConfigs[R4]
	}
	return cfg.CorePackageName + "#" + cfg.CorePackageVersion
}

// Number returns the numeric version used in fhirVersion elements.
func (v FHIRVersion) Number() string {
	cfg, ok := versionConfigs[v]
	if !ok {
		cfg = versionConfigs[R4]
	}
	return cfg.FHIRVersionString
}

// ParseFHIRVersion maps "R4", "4.0.1", "4.0" and friends to a FHIRVersion.
func ParseFHIRVersion(s string) (FHIRVersion, bool) {
	switch s {
	case "R4", "4.0", "4.0.0", "4.0.1":
		return R4, true
	case "R4B", "4.3", "4.3.0":
		return R4B, true
	case "R5", "5.0", "5.0.0":
		return R5, true
	default:
		return "", false
	}
}
