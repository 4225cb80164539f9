// Package errors provides structured error types for crunchize.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for crunchize, grouped by the four failure categories the
// orchestrator distinguishes (§7): load errors abort the run, config errors
// skip a task, template errors only warn, operation errors fail one item.
const (
	// Load errors
	CodePlaybookMissing Code = "PLAYBOOK_MISSING"
	CodePlaybookInvalid Code = "PLAYBOOK_INVALID"

	// Config errors
	CodeUnknownTaskType  Code = "UNKNOWN_TASK_TYPE"
	CodeMissingArg       Code = "MISSING_ARG"
	CodeInvalidEnumValue Code = "INVALID_ENUM_VALUE"
	CodeInvalidRegex     Code = "INVALID_REGEX"

	// Template errors (always non-fatal; code kept for log attribution)
	CodeTemplateUnresolved Code = "TEMPLATE_UNRESOLVED"
	CodeTemplateDepthLimit Code = "TEMPLATE_DEPTH_LIMIT"

	// Operation errors
	CodeToolFailed   Code = "TOOL_FAILED"
	CodeToolNotFound Code = "TOOL_NOT_FOUND"
	CodeFileOpFailed Code = "FILE_OP_FAILED"
	CodeNoInput      Code = "NO_INPUT"
)

// Category groups error codes by how the orchestrator reacts to them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryLoad              // aborts the run
	CategoryConfig            // task is skipped, run continues
	CategoryTemplate          // logged as a warning, never raises
	CategoryOperation         // one item fails, siblings unaffected
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodePlaybookMissing:    CategoryLoad,
	CodePlaybookInvalid:    CategoryLoad,
	CodeUnknownTaskType:    CategoryConfig,
	CodeMissingArg:         CategoryConfig,
	CodeInvalidEnumValue:   CategoryConfig,
	CodeInvalidRegex:       CategoryConfig,
	CodeTemplateUnresolved: CategoryTemplate,
	CodeTemplateDepthLimit: CategoryTemplate,
	CodeToolFailed:         CategoryOperation,
	CodeToolNotFound:       CategoryOperation,
	CodeFileOpFailed:       CategoryOperation,
	CodeNoInput:            CategoryOperation,
}

// ExitStatus returns the process exit code associated with a category.
// Load errors abort with a distinct code from per-item operation failures
// so calling scripts can tell "bad playbook" apart from "some frames failed".
func (c Category) ExitStatus() int {
	switch c {
	case CategoryLoad:
		return 2
	case CategoryConfig:
		return 3
	case CategoryOperation:
		return 1
	default:
		return 1
	}
}

// String renders the category name for logging.
func (c Category) String() string {
	switch c {
	case CategoryLoad:
		return "load"
	case CategoryConfig:
		return "config"
	case CategoryTemplate:
		return "template"
	case CategoryOperation:
		return "operation"
	default:
		return "unknown"
	}
}

// CrunchizeError is the structured error type for crunchize.
type CrunchizeError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *CrunchizeError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CrunchizeError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *CrunchizeError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category.
func (e *CrunchizeError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// ExitStatus returns the process exit status for this error's category.
func (e *CrunchizeError) ExitStatus() int {
	return e.Category().ExitStatus()
}

// MarshalJSON implements json.Marshaler.
func (e *CrunchizeError) MarshalJSON() ([]byte, error) {
	type alias CrunchizeError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a CrunchizeError with the same code.
func (e *CrunchizeError) Is(target error) bool {
	t, ok := target.(*CrunchizeError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *CrunchizeError) WithCause(err error) *CrunchizeError {
	return &CrunchizeError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrPlaybookMissing returns an error when the playbook file cannot be found.
func ErrPlaybookMissing(path string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodePlaybookMissing,
		What: fmt.Sprintf("playbook not found: %s", path),
		Fix:  "check the path passed to 'crunchize run'",
	}
}

// ErrPlaybookInvalid returns an error when the playbook YAML cannot be parsed.
func ErrPlaybookInvalid(path string, cause error) *CrunchizeError {
	return &CrunchizeError{
		Code:  CodePlaybookInvalid,
		What:  fmt.Sprintf("could not parse playbook %s", path),
		Cause: cause,
	}
}

// ErrUnknownTaskType returns an error when a task definition names an
// unregistered task type.
func ErrUnknownTaskType(taskType string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodeUnknownTaskType,
		What: fmt.Sprintf("unknown task type %q", taskType),
		Why:  "no task implementation is registered under this type name",
	}
}

// ErrMissingArg returns an error for a required argument absent from a task's args.
func ErrMissingArg(taskType, arg string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodeMissingArg,
		What: fmt.Sprintf("%s requires argument %q", taskType, arg),
	}
}

// ErrInvalidEnumValue returns an error when a field's value isn't among its allowed set.
func ErrInvalidEnumValue(field, value string, allowed []string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodeInvalidEnumValue,
		What: fmt.Sprintf("invalid value %q for %s", value, field),
		Why:  fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ErrInvalidRegex returns an error when a task's pattern argument fails to compile.
func ErrInvalidRegex(pattern string, cause error) *CrunchizeError {
	return &CrunchizeError{
		Code:  CodeInvalidRegex,
		What:  fmt.Sprintf("invalid regular expression %q", pattern),
		Cause: cause,
	}
}

// ErrTemplateUnresolved returns a template warning for an expression whose
// root could not be resolved against the context.
func ErrTemplateUnresolved(expr string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodeTemplateUnresolved,
		What: fmt.Sprintf("could not resolve {{ %s }}", expr),
	}
}

// ErrTemplateDepthLimit returns a template warning when recursive resolution
// exceeds the bounded depth.
func ErrTemplateDepthLimit(expr string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodeTemplateDepthLimit,
		What: fmt.Sprintf("template expression {{ %s }} did not converge", expr),
		Why:  "exceeded maximum resolution depth",
	}
}

// ErrToolFailed returns an error when an invoked external tool exits non-zero.
func ErrToolFailed(tool string, cause error) *CrunchizeError {
	return &CrunchizeError{
		Code:  CodeToolFailed,
		What:  fmt.Sprintf("%s failed", tool),
		Cause: cause,
	}
}

// ErrToolNotFound returns an error when an external tool isn't on PATH.
func ErrToolNotFound(tool string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodeToolNotFound,
		What: fmt.Sprintf("%s command not found in PATH", tool),
		Fix:  fmt.Sprintf("install %s or add it to PATH", tool),
	}
}

// ErrFileOpFailed returns an error for a failed filesystem operation on one item.
func ErrFileOpFailed(op, path string, cause error) *CrunchizeError {
	return &CrunchizeError{
		Code:  CodeFileOpFailed,
		What:  fmt.Sprintf("%s failed for %s", op, path),
		Cause: cause,
	}
}

// ErrNoInput returns an error when a task could not resolve an input path from its item.
func ErrNoInput(taskType string) *CrunchizeError {
	return &CrunchizeError{
		Code: CodeNoInput,
		What: fmt.Sprintf("%s could not determine an input path for this item", taskType),
	}
}

// AsCrunchizeError attempts to convert an error to a CrunchizeError.
// Returns nil if the error is not a CrunchizeError.
func AsCrunchizeError(err error) *CrunchizeError {
	var ce *CrunchizeError
	if As(err, &ce) {
		return ce
	}
	return nil
}

// As is a convenience wrapper mirroring errors.As for *CrunchizeError targets.
func As(err error, target any) bool {
	return asError(err, target)
}

func asError(err error, target any) bool {
	if err == nil {
		return false
	}
	if ce, ok := err.(*CrunchizeError); ok {
		if t, ok := target.(**CrunchizeError); ok {
			*t = ce
			return true
		}
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return asError(unwrapper.Unwrap(), target)
	}
	return false
}

// Wrap wraps a generic error into a CrunchizeError with unknown code.
func Wrap(err error, what string) *CrunchizeError {
	return &CrunchizeError{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
