package annotations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

// Prefix marks a comment line as a framework annotation
const Prefix = "mvc::"

// annotationAST is the grammar of one annotation line:
//
//	//mvc::<kind> <positional>... -<Flag>[=<value>]...
type annotationAST struct {
	Kind       string   `parser:"Comment Prefix @Word"`
	Positional []string `parser:"( @String | @Word )*"`
	Flags      []string `parser:"@Flag*"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Comment", Pattern: `//`},
	{Name: "Prefix", Pattern: `mvc::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Flag", Pattern: `-[A-Za-z_][A-Za-z0-9_]*(=("(\\"|[^"])*"|\S*))?`},
	{Name: "Word", Pattern: `\S+`},
})

// Parser parses annotation lines and validates them against a schema registry
type Parser struct {
	parser   *participle.Parser[annotationAST]
	registry AnnotationRegistry
}

// NewParser creates a parser validating against the given registry
func NewParser(registry AnnotationRegistry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}

	return &Parser{
		parser: participle.MustBuild[annotationAST](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
		),
		registry: registry,
	}
}

var defaultParser = NewParser(nil)

// Parse parses an annotation with the built-in schemas
func Parse(annotation string) (*ParsedAnnotation, error) {
	return defaultParser.Parse(annotation)
}

// IsAnnotation reports whether a line looks like a framework annotation
func IsAnnotation(line string) bool {
	content := strings.TrimSpace(line)
	if !strings.HasPrefix(content, "//") {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(content, "//")), Prefix)
}

// Parse parses and validates a single annotation line
func (p *Parser) Parse(annotation string) (*ParsedAnnotation, error) {
	raw := strings.TrimSpace(annotation)
	if !IsAnnotation(raw) {
		return nil, mverrors.Newf(mverrors.SyntaxErrorCode,
			"annotation must start with '//%s', got '%s'", Prefix, raw).
			WithSuggestion("Write annotations as //mvc::<kind> followed by arguments, e.g. //mvc::action Details -Params=id")
	}

	ast, err := p.parser.ParseString("", raw)
	if err != nil {
		return nil, mverrors.WrapParseError(fmt.Sprintf("annotation '%s'", raw), err)
	}

	annotationType, err := ParseAnnotationType(ast.Kind)
	if err != nil {
		return nil, mverrors.Wrap(mverrors.SyntaxErrorCode, err.Error(), err).
			WithContext("annotation", raw)
	}

	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return nil, mverrors.Wrap(mverrors.ValidationErrorCode, err.Error(), err)
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Positional: make(map[string]string, len(schema.Positional)),
		Parameters: make(map[string]interface{}),
		Raw:        raw,
	}

	if err := p.assignPositional(parsed, schema, ast.Positional); err != nil {
		return nil, err
	}

	for _, flag := range ast.Flags {
		if err := p.assignFlag(parsed, schema, flag); err != nil {
			return nil, err
		}
	}

	if err := validateRequired(parsed, schema); err != nil {
		return nil, err
	}

	switch parsed.Type {
	case ActionAnnotation:
		parsed.Target = parsed.GetPositional("method")
	case RouteAnnotation:
		parsed.Target = parsed.GetString("Action")
	}

	return parsed, nil
}

// assignPositional maps positional arguments onto the schema in order
func (p *Parser) assignPositional(parsed *ParsedAnnotation, schema AnnotationSchema, values []string) error {
	if len(values) != len(schema.Positional) {
		names := make([]string, len(schema.Positional))
		for i, spec := range schema.Positional {
			names[i] = "<" + spec.Name + ">"
		}
		usage := strings.TrimSpace(fmt.Sprintf("//%s%s %s", Prefix, schema.Type, strings.Join(names, " ")))
		return mverrors.Newf(mverrors.ValidationErrorCode,
			"%s annotation expects %d positional argument(s), got %d", schema.Type, len(schema.Positional), len(values)).
			WithContext("annotation", parsed.Raw).
			WithSuggestion("Use the form: " + usage)
	}

	for i, spec := range schema.Positional {
		value := values[i]
		if spec.Validator != nil {
			if err := spec.Validator(value); err != nil {
				return mverrors.Wrapf(mverrors.ValidationErrorCode, err,
					"%s annotation argument '%s' is invalid: %v", schema.Type, spec.Name, err).
					WithContext("annotation", parsed.Raw)
			}
		}
		parsed.Positional[spec.Name] = value
	}
	return nil
}

// assignFlag converts one -Key[=value] token using the schema
func (p *Parser) assignFlag(parsed *ParsedAnnotation, schema AnnotationSchema, flag string) error {
	key, rawValue, hasValue := strings.Cut(strings.TrimPrefix(flag, "-"), "=")

	spec, exists := schema.Parameters[key]
	if !exists {
		return mverrors.Newf(mverrors.ValidationErrorCode,
			"unknown parameter '%s' for annotation type %s", key, schema.Type).
			WithContext("annotation", parsed.Raw)
	}

	var value interface{}
	if !hasValue {
		switch {
		case spec.Type == BoolType:
			value = true
		case spec.DefaultValue != nil:
			value = spec.DefaultValue
		default:
			return mverrors.Newf(mverrors.ValidationErrorCode,
				"parameter '%s' of %s annotation requires a value", key, schema.Type).
				WithContext("annotation", parsed.Raw).
				WithSuggestion(fmt.Sprintf("Write it as -%s=<value>", key))
		}
	} else {
		converted, err := convertValue(spec.Type, unquote(rawValue))
		if err != nil {
			return mverrors.Wrapf(mverrors.ValidationErrorCode, err,
				"parameter '%s' of %s annotation is invalid: %v", key, schema.Type, err).
				WithContext("annotation", parsed.Raw)
		}
		value = converted
	}

	if spec.Validator != nil {
		if err := spec.Validator(value); err != nil {
			return mverrors.Wrapf(mverrors.ValidationErrorCode, err,
				"parameter '%s' validation failed: %v", key, err).
				WithContext("annotation", parsed.Raw)
		}
	}

	parsed.Parameters[key] = value
	return nil
}

// validateRequired checks for missing required parameters
func validateRequired(parsed *ParsedAnnotation, schema AnnotationSchema) error {
	for paramName, paramSpec := range schema.Parameters {
		if paramSpec.Required && !parsed.Has(paramName) {
			return mverrors.Newf(mverrors.ValidationErrorCode,
				"missing required parameter '%s' for annotation type %s", paramName, schema.Type).
				WithContext("annotation", parsed.Raw)
		}
	}
	return nil
}

// convertValue converts a raw flag value to the schema type
func convertValue(paramType ParameterType, raw string) (interface{}, error) {
	switch paramType {
	case IntType:
		return strconv.Atoi(raw)
	case BoolType:
		return strconv.ParseBool(raw)
	case StringSliceType:
		return splitList(raw), nil
	case StringMapType:
		result := make(map[string]string)
		for _, pair := range splitList(raw) {
			key, value, ok := strings.Cut(pair, ":")
			if !ok || strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("expected key:value, got '%s'", pair)
			}
			result[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		return result, nil
	default:
		return raw, nil
	}
}

// splitList splits a comma-separated list, dropping empty entries
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// unquote removes surrounding single or double quotes
func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
