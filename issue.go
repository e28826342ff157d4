package gofsh

// IssueSeverity represents the severity of a run issue.
type IssueSeverity string

const (
	// SeverityFatal aborts the optimize phase.
	SeverityFatal IssueSeverity = "fatal"
	// SeverityError marks content that could not be expressed.
	SeverityError IssueSeverity = "error"
	// SeverityWarning marks suspicious content that was kept unchanged.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation is informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueType classifies an issue.
type IssueType string

const (
	// IssueTypeInvalid is an unparsable or non-conforming input document.
	IssueTypeInvalid IssueType = "invalid"
	// IssueTypeNotFound is a resolution miss.
	IssueTypeNotFound IssueType = "not-found"
	// IssueTypeValue is a primitive value that fails its grammar.
	IssueTypeValue IssueType = "value"
	// IssueTypeDuplicate is a duplicate id or generated-id collision.
	IssueTypeDuplicate IssueType = "duplicate"
	// IssueTypeProcessing is a pipeline failure.
	IssueTypeProcessing IssueType = "processing"
	// IssueTypeNotSupported is content that cannot be expressed in FSH.
	IssueTypeNotSupported IssueType = "not-supported"
	// IssueTypeInformational is informational content.
	IssueTypeInformational IssueType = "informational"
)

// Issue is one entry of the run log.
type Issue struct {
	Severity    IssueSeverity `json:"severity"`
	Code        IssueType     `json:"code"`
	Diagnostics string        `json:"diagnostics,omitempty"`

	// Source is the definition (file or resourceType/id) the issue refers to.
	Source string `json:"source,omitempty"`

	// Path is the element or rule path the issue refers to.
	Path string `json:"path,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	s := string(i.Severity) + ": " + i.Diagnostics
	if i.Path != "" {
		s += " at " + i.Path
	}
	if i.Source != "" {
		s += " (" + i.Source + ")"
	}
	return s
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity IssueSeverity, code IssueType) *IssueBuilder {
	return &IssueBuilder{issue: Issue{Severity: severity, Code: code}}
}

// Error creates an error issue.
func Error(code IssueType) *IssueBuilder {
	return NewIssue(SeverityError, code)
}

// Warning creates a warning issue.
func Warning(code IssueType) *IssueBuilder {
	return NewIssue(SeverityWarning, code)
}

// Info creates an informational issue.
func Info(code IssueType) *IssueBuilder {
	return NewIssue(SeverityInformation, code)
}

// Diagnostics sets the diagnostic message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// At sets the path.
func (b *IssueBuilder) At(path string) *IssueBuilder {
	b.issue.Path = path
	return b
}

// From sets the source definition.
func (b *IssueBuilder) From(source string) *IssueBuilder {
	b.issue.Source = source
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
