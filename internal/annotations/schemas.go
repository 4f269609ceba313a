package annotations

import (
	"fmt"
	"go/token"
	"strings"
)

// InterceptAnnotationSchema defines the schema for //ray::intercept annotations
var InterceptAnnotationSchema = AnnotationSchema{
	Type:        InterceptAnnotation,
	Description: "Marks a method for interception; takes no parameters",
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//ray::intercept",
	},
}

// ManagedAnnotationSchema defines the schema for //ray::managed annotations
var ManagedAnnotationSchema = AnnotationSchema{
	Type:        ManagedAnnotation,
	Description: "Marks a struct as container-managed so it is post-processed after construction",
	Parameters: map[string]ParameterSpec{
		"Name": {
			Type:        StringType,
			Description: "Registration name used in logs and hints (defaults to the type name)",
			Validator:   ValidateIdentifier,
		},
		"Constructor": {
			Type:        StringType,
			Description: "Constructor function (defaults to New<Type>)",
			Validator:   ValidateIdentifier,
		},
	},
	Examples: []string{
		"//ray::managed",
		"//ray::managed -Name=greetingsService",
		"//ray::managed -Constructor=NewGreetings",
	},
}

// AotAnnotationSchema defines the schema for //ray::aot annotations
var AotAnnotationSchema = AnnotationSchema{
	Type:        AotAnnotation,
	Description: "Replaces post-construction of a struct with a generated ahead-of-time initializer",
	Parameters: map[string]ParameterSpec{
		"Constructor": {
			Type:        StringType,
			Required:    true,
			Description: "Function taking ray.BuildInfo and returning the replacement value",
			Validator:   ValidateIdentifier,
		},
	},
	Examples: []string{
		"//ray::aot -Constructor=NewCompiledReport",
	},
}

// FinalAnnotationSchema defines the schema for //ray::final annotations
var FinalAnnotationSchema = AnnotationSchema{
	Type:        FinalAnnotation,
	Description: "Seals a type so no subclass source can be synthesized for it",
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//ray::final",
	},
}

// ValidateIdentifier accepts a Go identifier, optionally package-qualified.
func ValidateIdentifier(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("must be a string, got %T", v)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return fmt.Errorf("'%s' is not a Go identifier", s)
	}
	for _, part := range parts {
		if !token.IsIdentifier(part) {
			return fmt.Errorf("'%s' is not a Go identifier", s)
		}
	}
	return nil
}

// GetBuiltinSchemas returns all built-in annotation schemas
func GetBuiltinSchemas() []AnnotationSchema {
	return []AnnotationSchema{
		InterceptAnnotationSchema,
		ManagedAnnotationSchema,
		AotAnnotationSchema,
		FinalAnnotationSchema,
	}
}

// RegisterBuiltinSchemas registers all built-in annotation schemas with the given registry
func RegisterBuiltinSchemas(registry AnnotationRegistry) error {
	for _, schema := range GetBuiltinSchemas() {
		if err := registry.Register(schema.Type, schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Type.String(), err)
		}
	}
	return nil
}
