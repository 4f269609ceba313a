package annotations

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix is the namespace every annotation comment starts with
const Prefix = "ray"

// annotationGrammar is the participle grammar of one annotation comment:
//
//	//ray::<type> [-Key[=Value]]...
type annotationGrammar struct {
	Namespace  string         `parser:"Comment @Ident Separator"`
	Type       string         `parser:"@Ident"`
	Positional []string       `parser:"@(Ident | String | Number)*"`
	Items      []*itemGrammar `parser:"@@*"`
}

type itemGrammar struct {
	Key   string        `parser:"Dash @Ident"`
	Value *valueGrammar `parser:"( Equals @@ )?"`
}

type valueGrammar struct {
	String *string `parser:"  @String"`
	Number *string `parser:"| @Number"`
	Ident  *string `parser:"| @Ident"`
}

func (v *valueGrammar) raw() (string, error) {
	switch {
	case v.String != nil:
		return strconv.Unquote(*v.String)
	case v.Number != nil:
		return *v.Number, nil
	case v.Ident != nil:
		return *v.Ident, nil
	}
	return "", nil
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//`},
	{Name: "Separator", Pattern: `::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// ParticipleParser parses //ray:: comments and validates them against the
// schemas of its registry
type ParticipleParser struct {
	parser   *participle.Parser[annotationGrammar]
	registry AnnotationRegistry
}

// NewParticipleParser creates a parser; a nil registry uses the builtin schemas
func NewParticipleParser(registry AnnotationRegistry) *ParticipleParser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &ParticipleParser{
		parser: participle.MustBuild[annotationGrammar](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		),
		registry: registry,
	}
}

// IsAnnotation reports whether a comment line is meant as a //ray:: annotation
func IsAnnotation(comment string) bool {
	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
	return strings.HasPrefix(content, Prefix+"::")
}

// ParseAnnotation parses and validates a single annotation comment
func (p *ParticipleParser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	comment = strings.TrimSpace(comment)

	ast, err := p.parser.ParseString(location.File, comment)
	if err != nil {
		return nil, p.syntaxError(err, comment, location)
	}

	if ast.Namespace != Prefix {
		return nil, &SyntaxError{
			Msg:  fmt.Sprintf("unknown annotation namespace '%s'", ast.Namespace),
			Loc:  location,
			Hint: fmt.Sprintf("Annotations must start with //%s::", Prefix),
		}
	}

	annotationType, err := ParseAnnotationType(ast.Type)
	if err != nil || !p.registry.IsRegistered(annotationType) {
		return nil, &SchemaError{
			Msg:  fmt.Sprintf("unknown annotation type '%s'", ast.Type),
			Loc:  location,
			Hint: knownTypesHint(p.registry),
		}
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]interface{}),
		Location:   location,
		Raw:        comment,
	}

	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return nil, err
	}

	var problems []error
	if len(ast.Positional) > 0 {
		problems = append(problems, &ValidationError{
			Parameter: ast.Positional[0],
			Expected:  "-Key=Value parameters only",
			Actual:    fmt.Sprintf("positional argument '%s'", ast.Positional[0]),
			Loc:       location,
			Hint:      suggestionFor(annotationType, p.registry),
		})
	}

	for _, item := range ast.Items {
		value, err := p.itemValue(item, schema)
		if err != nil {
			problems = append(problems, &ValidationError{
				Parameter: item.Key,
				Expected:  "a valid value",
				Actual:    err.Error(),
				Loc:       location,
				Hint:      suggestionFor(annotationType, p.registry),
			})
			continue
		}
		if item.Value == nil {
			parsed.Flags = append(parsed.Flags, item.Key)
		}
		parsed.Parameters[item.Key] = value
	}

	problems = append(problems, validateAgainstSchema(parsed, schema, p.registry)...)
	if len(problems) > 0 {
		return nil, &MultipleValidationErrors{Errors: problems}
	}

	applyDefaults(parsed, schema)
	return parsed, nil
}

func (p *ParticipleParser) itemValue(item *itemGrammar, schema AnnotationSchema) (interface{}, error) {
	spec, known := schema.Parameters[item.Key]

	if item.Value == nil {
		switch {
		case !known:
			return true, nil // reported as unknown by schema validation
		case spec.Type == BoolType:
			return true, nil
		case spec.DefaultValue != nil:
			return spec.DefaultValue, nil
		default:
			return nil, fmt.Errorf("-%s requires a value", item.Key)
		}
	}

	raw, err := item.Value.raw()
	if err != nil {
		return nil, fmt.Errorf("malformed string: %w", err)
	}
	if known && spec.Type == BoolType {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("'%s' is not a boolean", raw)
		}
		return b, nil
	}
	return raw, nil
}

func (p *ParticipleParser) syntaxError(err error, comment string, location SourceLocation) error {
	loc := location
	var perr participle.Error
	if errors.As(err, &perr) {
		loc.Column = location.Column + perr.Position().Column - 1
		return &SyntaxError{Msg: perr.Message(), Loc: loc, Hint: syntaxHint(comment)}
	}
	return &SyntaxError{Msg: err.Error(), Loc: loc, Hint: syntaxHint(comment)}
}

func syntaxHint(comment string) string {
	switch {
	case !strings.HasPrefix(comment, "//"):
		return "Annotations are line comments starting with //"
	case strings.Contains(comment, "--"):
		return "Use a single dash for parameters: -Key=Value"
	case strings.Count(comment, "\"")%2 != 0:
		return "Check for an unterminated string"
	default:
		return fmt.Sprintf("Expected //%s::<type> [-Key=Value]...", Prefix)
	}
}

// validateAgainstSchema reports unknown parameters, missing required ones
// and values rejected by a parameter validator, in a stable order
func validateAgainstSchema(annotation *ParsedAnnotation, schema AnnotationSchema, registry AnnotationRegistry) []error {
	var problems []error

	names := make([]string, 0, len(annotation.Parameters))
	for name := range annotation.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, exists := schema.Parameters[name]
		if !exists {
			problems = append(problems, &ValidationError{
				Parameter: name,
				Expected:  "known parameter",
				Actual:    fmt.Sprintf("unknown parameter '%s'", name),
				Loc:       annotation.Location,
				Hint:      fmt.Sprintf("Remove -%s or check parameter name spelling. %s", name, suggestionFor(annotation.Type, registry)),
			})
			continue
		}
		if spec.Validator != nil {
			if err := spec.Validator(annotation.Parameters[name]); err != nil {
				problems = append(problems, &ValidationError{
					Parameter: name,
					Expected:  spec.Description,
					Actual:    fmt.Sprintf("%v", annotation.Parameters[name]),
					Loc:       annotation.Location,
					Hint:      err.Error(),
				})
			}
		}
	}

	required := make([]string, 0)
	for name, spec := range schema.Parameters {
		if spec.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	for _, name := range required {
		if _, exists := annotation.Parameters[name]; !exists {
			problems = append(problems, &ValidationError{
				Parameter: name,
				Expected:  fmt.Sprintf("required parameter of type %s", schema.Parameters[name].Type),
				Actual:    "missing",
				Loc:       annotation.Location,
				Hint:      fmt.Sprintf("Add -%s=<value> to the annotation", name),
			})
		}
	}

	return problems
}

func applyDefaults(annotation *ParsedAnnotation, schema AnnotationSchema) {
	for name, spec := range schema.Parameters {
		if _, exists := annotation.Parameters[name]; !exists && spec.DefaultValue != nil {
			annotation.Parameters[name] = spec.DefaultValue
		}
	}
}
