package gofsh

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gofhir/gofsh/pkg/logger"
)

func TestResult_Counts(t *testing.T) {
	var buf bytes.Buffer
	r := NewResultWithLogger(logger.New(&buf, logger.LevelWarn))

	r.Warnf(IssueTypeValue, "Observation/obs", "value %q does not match dateTime", "2020-13")
	r.Errorf(IssueTypeNotSupported, "StructureDefinition/p", "empty array at %s", "alias")
	r.Infof("", "done")

	if r.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d; want 1", r.ErrorCount())
	}
	if r.WarningCount() != 1 {
		t.Errorf("WarningCount() = %d; want 1", r.WarningCount())
	}
	if !r.HasErrors() {
		t.Error("HasErrors() should be true")
	}
	if got := r.Errors()[0].Source; got != "StructureDefinition/p" {
		t.Errorf("Errors()[0].Source = %q", got)
	}
	if !strings.Contains(buf.String(), "[WARN] warning: value \"2020-13\" does not match dateTime") {
		t.Errorf("warning not forwarded to logger: %q", buf.String())
	}
}

func TestResult_Nil(t *testing.T) {
	var r *Result
	r.AddIssue(Error(IssueTypeInvalid).Build())
}

func TestIssue_String(t *testing.T) {
	issue := Warning(IssueTypeValue).Diagnostics("bad date").At("date").From("ValueSet/vs").Build()
	want := "warning: bad date at date (ValueSet/vs)"
	if got := issue.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	if !issue.IsWarning() || issue.IsError() {
		t.Error("severity helpers disagree with SeverityWarning")
	}
}
