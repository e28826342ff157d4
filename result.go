package gofsh

import (
	"fmt"
	"sync"

	"github.com/gofhir/gofsh/pkg/logger"
)

// Result is the run-scoped log of errors and warnings. Issues of classes
// other than pipeline-fatal are recorded here instead of being returned as
// errors, and every recorded issue is forwarded to the logger.
type Result struct {
	Issues []Issue `json:"issues,omitempty"`

	log *logger.Logger
	mu  sync.Mutex
}

// NewResult creates an empty Result that logs through the default logger.
func NewResult() *Result {
	return &Result{log: logger.Default()}
}

// NewResultWithLogger creates an empty Result that logs through l.
func NewResultWithLogger(l *logger.Logger) *Result {
	if l == nil {
		l = logger.Default()
	}
	return &Result{log: l}
}

// AddIssue records an issue.
func (r *Result) AddIssue(issue Issue) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.Issues = append(r.Issues, issue)
	r.mu.Unlock()

	switch issue.Severity {
	case SeverityError, SeverityFatal:
		r.log.Error("%s", issue.String())
	case SeverityWarning:
		r.log.Warn("%s", issue.String())
	default:
		r.log.Info("%s", issue.String())
	}
}

// Errorf records an error issue.
func (r *Result) Errorf(code IssueType, source, format string, args ...any) {
	r.AddIssue(Error(code).From(source).Diagnostics(fmt.Sprintf(format, args...)).Build())
}

// Warnf records a warning issue.
func (r *Result) Warnf(code IssueType, source, format string, args ...any) {
	r.AddIssue(Warning(code).From(source).Diagnostics(fmt.Sprintf(format, args...)).Build())
}

// Infof records an informational issue.
func (r *Result) Infof(source, format string, args ...any) {
	r.AddIssue(Info(IssueTypeInformational).From(source).Diagnostics(fmt.Sprintf(format, args...)).Build())
}

// HasErrors returns true if any error or fatal issue was recorded.
func (r *Result) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of error and fatal issues.
func (r *Result) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, issue := range r.Issues {
		if issue.IsError() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warnings.
func (r *Result) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, issue := range r.Issues {
		if issue.IsWarning() {
			count++
		}
	}
	return count
}

// Errors returns only error and fatal issues.
func (r *Result) Errors() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Issue
	for _, issue := range r.Issues {
		if issue.IsError() {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns only warning issues.
func (r *Result) Warnings() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Issue
	for _, issue := range r.Issues {
		if issue.IsWarning() {
			out = append(out, issue)
		}
	}
	return out
}
