package annotations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAnnotation(t *testing.T) {
	tests := []struct {
		comment string
		want    bool
	}{
		{"//ray::intercept", true},
		{"// ray::managed -Name=x", true},
		{"  //ray::final", true},
		{"// regular comment", false},
		{"//go:generate ray ./...", false},
		{"//wire::core", false},
		{"//ray:intercept", false},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAnnotation(tt.comment))
		})
	}
}

func TestParticipleParser_ParseAnnotation(t *testing.T) {
	parser := NewParticipleParser(nil)
	loc := SourceLocation{File: "service.go", Line: 12, Column: 1}

	tests := []struct {
		name       string
		comment    string
		wantType   AnnotationType
		wantParams map[string]interface{}
		wantFlags  []string
	}{
		{
			name:       "intercept marker",
			comment:    "//ray::intercept",
			wantType:   InterceptAnnotation,
			wantParams: map[string]interface{}{},
		},
		{
			name:       "marker with surrounding space",
			comment:    "  // ray::intercept  ",
			wantType:   InterceptAnnotation,
			wantParams: map[string]interface{}{},
		},
		{
			name:       "managed without parameters",
			comment:    "//ray::managed",
			wantType:   ManagedAnnotation,
			wantParams: map[string]interface{}{},
		},
		{
			name:     "managed with name and constructor",
			comment:  "//ray::managed -Name=greetingsService -Constructor=NewGreetings",
			wantType: ManagedAnnotation,
			wantParams: map[string]interface{}{
				"Name":        "greetingsService",
				"Constructor": "NewGreetings",
			},
		},
		{
			name:       "quoted value",
			comment:    `//ray::managed -Name="greetings"`,
			wantType:   ManagedAnnotation,
			wantParams: map[string]interface{}{"Name": "greetings"},
		},
		{
			name:       "qualified constructor",
			comment:    "//ray::aot -Constructor=report.NewCompiled",
			wantType:   AotAnnotation,
			wantParams: map[string]interface{}{"Constructor": "report.NewCompiled"},
		},
		{
			name:       "final",
			comment:    "//ray::final",
			wantType:   FinalAnnotation,
			wantParams: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.ParseAnnotation(tt.comment, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, parsed.Type)
			assert.Equal(t, tt.wantParams, parsed.Parameters)
			assert.Equal(t, tt.wantFlags, parsed.Flags)
			assert.Equal(t, loc, parsed.Location)
		})
	}
}

func TestParticipleParser_Errors(t *testing.T) {
	parser := NewParticipleParser(nil)
	loc := SourceLocation{File: "service.go", Line: 3, Column: 1}

	tests := []struct {
		name     string
		comment  string
		wantCode ErrorCode
		contains string
	}{
		{"missing separator", "//ray intercept", SyntaxErrorCode, "syntax error"},
		{"wrong namespace", "//wire::core", SyntaxErrorCode, "unknown annotation namespace 'wire'"},
		{"unknown type", "//ray::weave", SchemaErrorCode, "unknown annotation type 'weave'"},
		{"marker takes no parameters", "//ray::intercept -Verbose", ValidationErrorCode, "unknown parameter 'Verbose'"},
		{"positional argument", "//ray::intercept english", ValidationErrorCode, "positional argument 'english'"},
		{"aot requires constructor", "//ray::aot", ValidationErrorCode, "missing"},
		{"flag without value", "//ray::aot -Constructor", ValidationErrorCode, "requires a value"},
		{"bad identifier", `//ray::managed -Constructor="New Greetings"`, ValidationErrorCode, "not a Go identifier"},
		{"double dash", "//ray::managed --Name=x", SyntaxErrorCode, "single dash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseAnnotation(tt.comment, loc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)

			var annErr AnnotationError
			require.True(t, errors.As(err, &annErr), "expected an AnnotationError, got %T", err)
			assert.Equal(t, tt.wantCode, annErr.Code())
			assert.Equal(t, "service.go", annErr.Location().File)
		})
	}
}

func TestParticipleParser_UnknownTypeHintListsTypes(t *testing.T) {
	_, err := NewParticipleParser(nil).ParseAnnotation("//ray::proxy", SourceLocation{})

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Suggestion(), "ray::intercept")
	assert.Contains(t, schemaErr.Suggestion(), "ray::final")
}

func TestParticipleParser_RestrictedRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(InterceptAnnotation, InterceptAnnotationSchema))
	parser := NewParticipleParser(reg)

	_, err := parser.ParseAnnotation("//ray::intercept", SourceLocation{})
	assert.NoError(t, err)

	_, err = parser.ParseAnnotation("//ray::managed", SourceLocation{})
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}
