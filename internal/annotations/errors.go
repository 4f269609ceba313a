package annotations

import (
	"fmt"
	"strings"
)

// AnnotationError defines the interface for annotation-related errors
type AnnotationError interface {
	error
	Location() SourceLocation
	Suggestion() string
	Code() ErrorCode
}

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	SyntaxErrorCode ErrorCode = iota
	ValidationErrorCode
	SchemaErrorCode
)

func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case ValidationErrorCode:
		return "ValidationError"
	case SchemaErrorCode:
		return "SchemaError"
	default:
		return "UnknownError"
	}
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Parameter string
	Expected  string
	Actual    string
	Loc       SourceLocation
	Hint      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: parameter '%s' validation failed: expected %s, got %s. %s",
		e.Loc, e.Parameter, e.Expected, e.Actual, e.Hint)
}

func (e *ValidationError) Location() SourceLocation { return e.Loc }
func (e *ValidationError) Suggestion() string       { return e.Hint }
func (e *ValidationError) Code() ErrorCode          { return ValidationErrorCode }

// SyntaxError represents a syntax parsing error
type SyntaxError struct {
	Msg  string
	Loc  SourceLocation
	Hint string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: %s. %s", e.Loc, e.Msg, e.Hint)
}

func (e *SyntaxError) Location() SourceLocation { return e.Loc }
func (e *SyntaxError) Suggestion() string       { return e.Hint }
func (e *SyntaxError) Code() ErrorCode          { return SyntaxErrorCode }

// SchemaError represents a schema-related error
type SchemaError struct {
	Msg  string
	Loc  SourceLocation
	Hint string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema error: %s. %s", e.Loc, e.Msg, e.Hint)
}

func (e *SchemaError) Location() SourceLocation { return e.Loc }
func (e *SchemaError) Suggestion() string       { return e.Hint }
func (e *SchemaError) Code() ErrorCode          { return SchemaErrorCode }

// MultipleValidationErrors collects every problem found in one annotation
type MultipleValidationErrors struct {
	Errors []error
}

func (e *MultipleValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for _, err := range e.Errors {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple validation errors:\n%s", strings.Join(messages, "\n"))
}

func (e *MultipleValidationErrors) Unwrap() []error {
	return e.Errors
}

// suggestionFor returns the usage examples of a schema as a hint
func suggestionFor(annotationType AnnotationType, registry AnnotationRegistry) string {
	if registry == nil {
		return ""
	}
	schema, err := registry.GetSchema(annotationType)
	if err != nil || len(schema.Examples) == 0 {
		return ""
	}
	return "Example: " + strings.Join(schema.Examples, " or ")
}

// knownTypesHint lists the annotation types a registry accepts
func knownTypesHint(registry AnnotationRegistry) string {
	if registry == nil {
		return ""
	}
	var names []string
	for _, t := range registry.ListTypes() {
		names = append(names, "ray::"+t.String())
	}
	return "Valid annotations are: " + strings.Join(names, ", ")
}
