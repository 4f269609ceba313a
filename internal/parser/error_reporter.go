package parser

import (
	stderrors "errors"
	"fmt"

	"github.com/toyz/ray/internal/annotations"
	"github.com/toyz/ray/internal/errors"
)

// annotationFailures converts the errors of one annotation comment into
// RayErrors so they are reported with every other problem of the package
func annotationFailures(err error) []errors.RayError {
	var multi *annotations.MultipleValidationErrors
	if stderrors.As(err, &multi) {
		var failures []errors.RayError
		for _, inner := range multi.Errors {
			failures = append(failures, annotationFailures(inner)...)
		}
		return failures
	}

	var failure *errors.BaseError
	switch e := err.(type) {
	case *annotations.SyntaxError:
		failure = errors.New(errors.AnnotationSyntaxErrorCode, "syntax error: "+e.Msg)
	case *annotations.SchemaError:
		failure = errors.New(errors.AnnotationSyntaxErrorCode, e.Msg)
	case *annotations.ValidationError:
		failure = errors.New(errors.ValidationErrorCode,
			fmt.Sprintf("parameter '%s' validation failed: expected %s, got %s", e.Parameter, e.Expected, e.Actual))
	default:
		return []errors.RayError{errors.WrapParseError("annotation", err)}
	}

	annErr := err.(annotations.AnnotationError)
	failure = failure.WithLocation(toLocation(annErr.Location()))
	if hint := annErr.Suggestion(); hint != "" {
		failure = failure.WithSuggestion(hint)
	}
	return []errors.RayError{failure}
}
