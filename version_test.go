package gofsh

import "testing"

func TestFHIRVersion_IsValid(t *testing.T) {
	tests := []struct {
		version FHIRVersion
		want    bool
	}{
		{R4, true},
		{R4B, true},
		{R5, true},
		{"R3", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.version.IsValid(); got != tt.want {
			t.Errorf("%v.IsValid() = %v; want %v", tt.version, got, tt.want)
		}
	}
}

func TestFHIRVersion_Packages(t *testing.T) {
	if got := R4.CorePackage(); got != "hl7.fhir.r4.core#4.0.1" {
		t.Errorf("R4.CorePackage() = %q", got)
	}
	if got := R5.Number(); got != "5.0.0" {
		t.Errorf("R5.Number() = %q", got)
	}
	if got := FHIRVersion("bogus").Number(); got != "4.0.1" {
		t.Errorf("bogus.Number() = %q; want R4 fallback", got)
	}
}

func TestParseFHIRVersion(t *testing.T) {
	tests := []struct {
		in   string
		want FHIRVersion
		ok   bool
	}{
		{"4.0.1", R4, true},
		{"R4B", R4B, true},
		{"5.0.0", R5, true},
		{"3.0.2", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFHIRVersion(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFHIRVersion(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
