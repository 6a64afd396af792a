package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents stable error codes for all model construction failures
type ErrorCode string

const (
	// UnresolvedReference indicates a path does not resolve in the workspace
	UnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	// TypeIncompatible indicates resolved entities violate a type constraint
	TypeIncompatible ErrorCode = "TYPE_INCOMPATIBLE"
	// UnknownElement indicates a member name not present in the referenced interface
	UnknownElement ErrorCode = "UNKNOWN_ELEMENT"
	// UnsupportedConstruct indicates an XML tag or shape not recognized for the active dialect
	UnsupportedConstruct ErrorCode = "UNSUPPORTED_CONSTRUCT"
	// StructuralViolation indicates a required-but-empty collection or a duplicate path
	StructuralViolation ErrorCode = "STRUCTURAL_VIOLATION"
	// InvalidValue indicates a scalar that could not be coerced
	InvalidValue ErrorCode = "INVALID_VALUE"
	// InvalidReference indicates a malformed or relative path reference
	InvalidReference ErrorCode = "INVALID_REFERENCE"
)

// Location identifies the offending input for diagnostics
type Location struct {
	Path string `json:"path,omitempty"`
	Tag  string `json:"tag,omitempty"`
	Ref  string `json:"ref,omitempty"`
}

func (l Location) empty() bool {
	return l.Path == "" && l.Tag == "" && l.Ref == ""
}

func (l Location) String() string {
	var parts []string
	if l.Path != "" {
		parts = append(parts, "path="+l.Path)
	}
	if l.Tag != "" {
		parts = append(parts, "tag="+l.Tag)
	}
	if l.Ref != "" {
		parts = append(parts, "ref="+l.Ref)
	}
	return strings.Join(parts, " ")
}

// ModelError represents a model construction error with code, message and location
type ModelError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Location Location    `json:"location,omitempty"`
	Details  interface{} `json:"details,omitempty"`
	cause    error       // Underlying error (not exported to JSON)
}

// NewModelError creates a new ModelError
func NewModelError(code ErrorCode, message string, cause error) *ModelError {
	return &ModelError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *ModelError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if !e.Location.empty() {
		msg += " (" + e.Location.String() + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ModelError) Unwrap() error {
	return e.cause
}

// Is matches any ModelError carrying the same code, so sentinels work with errors.Is.
func (e *ModelError) Is(target error) bool {
	t, ok := target.(*ModelError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// WithDetails adds details to the error
func (e *ModelError) WithDetails(details interface{}) *ModelError {
	e.Details = details
	return e
}

// AtPath records the model or XML path the error was raised for.
// An already recorded path is kept; the innermost location wins.
func (e *ModelError) AtPath(path string) *ModelError {
	if e.Location.Path == "" {
		e.Location.Path = path
	}
	return e
}

// AtTag records the XML tag the error was raised for.
func (e *ModelError) AtTag(tag string) *ModelError {
	if e.Location.Tag == "" {
		e.Location.Tag = tag
	}
	return e
}

// WithRef records the reference string involved.
func (e *ModelError) WithRef(ref string) *ModelError {
	e.Location.Ref = ref
	return e
}

// Sentinels for errors.Is checks; they match on code only.
var (
	ErrUnresolvedReference  = &ModelError{Code: UnresolvedReference}
	ErrTypeIncompatible     = &ModelError{Code: TypeIncompatible}
	ErrUnknownElement       = &ModelError{Code: UnknownElement}
	ErrUnsupportedConstruct = &ModelError{Code: UnsupportedConstruct}
	ErrStructuralViolation  = &ModelError{Code: StructuralViolation}
	ErrInvalidValue         = &ModelError{Code: InvalidValue}
	ErrInvalidReference     = &ModelError{Code: InvalidReference}
)

// CodeOf returns the code of the first ModelError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var me *ModelError
	if stderrors.As(err, &me) {
		return me.Code
	}
	return ""
}

// As is a convenience wrapper around the standard library's errors.As for ModelError.
func As(err error) (*ModelError, bool) {
	var me *ModelError
	ok := stderrors.As(err, &me)
	return me, ok
}

// Unresolved reports a reference that does not resolve at a point requiring resolution.
func Unresolved(what, ref string) *ModelError {
	return NewModelError(UnresolvedReference, fmt.Sprintf("%s not found: %s", what, ref), nil).WithRef(ref)
}

// TypeMismatch reports two type identifiers that were required to be equal.
func TypeMismatch(subject, expected, found string) *ModelError {
	return NewModelError(TypeIncompatible,
		fmt.Sprintf("%s, expected '%s', found '%s'", subject, expected, found), nil).
		WithDetails(map[string]string{"expected": expected, "found": found})
}

// UnknownMember reports a member name missing from the named container.
func UnknownMember(kind, name, container string) *ModelError {
	return NewModelError(UnknownElement,
		fmt.Sprintf("unknown %s '%s' of '%s'", kind, name, container), nil)
}

// Unsupported reports an XML tag not recognized at the active parse point.
func Unsupported(tag, context string) *ModelError {
	return NewModelError(UnsupportedConstruct,
		fmt.Sprintf("unsupported element <%s> in %s", tag, context), nil).AtTag(tag)
}

// Structural reports a structural violation such as an empty required collection.
func Structural(format string, args ...interface{}) *ModelError {
	return NewModelError(StructuralViolation, fmt.Sprintf(format, args...), nil)
}

// Invalid reports a scalar value that could not be interpreted.
func Invalid(format string, args ...interface{}) *ModelError {
	return NewModelError(InvalidValue, fmt.Sprintf(format, args...), nil)
}
