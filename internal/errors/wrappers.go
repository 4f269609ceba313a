package errors

import "fmt"

// Unsubclassable reports a type that cannot be extended by an embedding
// subclass: it is sealed with //ray::final or is not a struct.
func Unsubclassable(typeName, reason string) *BaseError {
	return Newf(UnsubclassableTypeErrorCode, "cannot subclass %s: %s", typeName, reason).
		WithContext("type", typeName).
		WithSuggestion("Remove //ray::final or synthesize a subclass of a struct type instead")
}

// IntrospectionFailure reports a type that cannot be scanned for marks
func IntrospectionFailure(typeName, reason string) *BaseError {
	return Newf(IntrospectionFailureErrorCode, "cannot introspect %s: %s", typeName, reason).
		WithContext("type", typeName)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapGenerateError wraps an error with a "failed to generate" message
func WrapGenerateError(what, item string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s for %s", what, item), cause).
		WithContext("target", item)
}

// WrapParseError wraps an error raised while reading annotated source
func WrapParseError(item string, cause error) *BaseError {
	return Wrap(AnnotationSyntaxErrorCode, fmt.Sprintf("failed to parse %s", item), cause)
}

// ValidationFailure reports an annotation or declaration that is well formed
// but unusable
func ValidationFailure(loc SourceLocation, format string, args ...interface{}) *BaseError {
	return Newf(ValidationErrorCode, format, args...).WithLocation(loc)
}

// ModuleResolution wraps failures to determine the Go module path
func ModuleResolution(dir string, cause error) *BaseError {
	return Wrap(ModuleResolutionErrorCode, fmt.Sprintf("failed to resolve module for %s", dir), cause).
		WithSuggestion("Run ray from inside a Go module or pass --module")
}

// ConfigurationError reports invalid command line configuration
func ConfigurationError(message string, cause error) *BaseError {
	return Wrap(ConfigurationErrorCode, message, cause)
}

// HasCode reports whether err, or any error it wraps, carries code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if re, ok := err.(RayError); ok && re.ErrorCode() == code {
			return true
		}
		if multi, ok := err.(*MultipleErrors); ok {
			return multi.HasCode(code)
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CodeOf returns the code of the outermost RayError in err's chain
func CodeOf(err error) ErrorCode {
	for err != nil {
		if re, ok := err.(RayError); ok {
			return re.ErrorCode()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return UnknownErrorCode
}
