package schema

import "strings"

// IssueKind classifies a validation issue.
type IssueKind string

const (
	KindMissingRequired    IssueKind = "missing_required_property"
	KindTypeMismatch       IssueKind = "type_mismatch"
	KindFormatViolation    IssueKind = "format_violation"
	KindMinimum            IssueKind = "minimum"
	KindMaximum            IssueKind = "maximum"
	KindMinLength          IssueKind = "min_length"
	KindMaxLength          IssueKind = "max_length"
	KindEnumMismatch       IssueKind = "enum_mismatch"
	KindAdditionalProperty IssueKind = "unexpected_additional_property"
	KindInvalidJSON        IssueKind = "invalid_json"
	KindUnknownSchema      IssueKind = "unknown_schema"
)

// Issue is a single structural violation.
type Issue struct {
	Kind    IssueKind
	Message string
	Path    string
}

// String renders the issue as "<message>: <path>".
func (i Issue) String() string {
	return i.Message + ": " + i.Path
}

// Result is the outcome of validating one payload against one schema.
type Result struct {
	Valid  bool
	Issues []Issue
}

// Messages returns the issue messages in order, without paths.
func (r Result) Messages() []string {
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Message
	}
	return out
}

// Strings returns the issues rendered as "<message>: <path>".
func (r Result) Strings() []string {
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.String()
	}
	return out
}

// Summary joins the issue messages with ", ".
func (r Result) Summary() string {
	return strings.Join(r.Messages(), ", ")
}
