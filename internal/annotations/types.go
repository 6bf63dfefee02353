package annotations

import "fmt"

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	ControllerAnnotation AnnotationType = iota
	ActionAnnotation
	RouteAnnotation
)

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	switch a {
	case ControllerAnnotation:
		return "controller"
	case ActionAnnotation:
		return "action"
	case RouteAnnotation:
		return "route"
	default:
		return "unknown"
	}
}

// ParseAnnotationType converts string to AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch s {
	case "controller":
		return ControllerAnnotation, nil
	case "action":
		return ActionAnnotation, nil
	case "route":
		return RouteAnnotation, nil
	default:
		return 0, fmt.Errorf("unknown annotation type: %s", s)
	}
}

// ParameterType describes how a named parameter value is converted
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	IntType
	StringSliceType
	StringMapType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case StringSliceType:
		return "[]string"
	case StringMapType:
		return "map[string]string"
	default:
		return "unknown"
	}
}

// ParameterSpec defines a named (-Key=value) annotation parameter
type ParameterSpec struct {
	Type         ParameterType
	Required     bool
	DefaultValue interface{}
	Description  string
	Validator    func(interface{}) error
}

// PositionalSpec defines a positional annotation argument
type PositionalSpec struct {
	Name        string
	Description string
	Validator   func(string) error
}

// AnnotationSchema describes the shape of one annotation kind
type AnnotationSchema struct {
	Type        AnnotationType
	Description string
	Positional  []PositionalSpec
	Parameters  map[string]ParameterSpec
	Examples    []string
}

// ParsedAnnotation represents a fully parsed annotation with type-safe parameters
type ParsedAnnotation struct {
	Type       AnnotationType         // Annotation type enum
	Target     string                 // Method the annotation applies to, empty for controller annotations
	Positional map[string]string      // Positional arguments keyed by their schema name
	Parameters map[string]interface{} // Typed named parameters
	Raw        string                 // Original annotation text
}

// GetPositional returns a positional argument by its schema name
func (p *ParsedAnnotation) GetPositional(name string) string {
	return p.Positional[name]
}

// GetString returns a string parameter value with optional default
func (p *ParsedAnnotation) GetString(paramName string, defaultValue ...string) string {
	if value, exists := p.Parameters[paramName]; exists {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetBool returns a boolean parameter value with optional default
func (p *ParsedAnnotation) GetBool(paramName string, defaultValue ...bool) bool {
	if value, exists := p.Parameters[paramName]; exists {
		if boolValue, ok := value.(bool); ok {
			return boolValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetInt returns an integer parameter value with optional default
func (p *ParsedAnnotation) GetInt(paramName string, defaultValue ...int) int {
	if value, exists := p.Parameters[paramName]; exists {
		if intValue, ok := value.(int); ok {
			return intValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetStringSlice returns a string slice parameter value
func (p *ParsedAnnotation) GetStringSlice(paramName string) []string {
	if value, exists := p.Parameters[paramName]; exists {
		if sliceValue, ok := value.([]string); ok {
			return sliceValue
		}
	}
	return nil
}

// GetStringMap returns a key:value list parameter value
func (p *ParsedAnnotation) GetStringMap(paramName string) map[string]string {
	if value, exists := p.Parameters[paramName]; exists {
		if mapValue, ok := value.(map[string]string); ok {
			return mapValue
		}
	}
	return nil
}

// Has reports whether a named parameter was supplied
func (p *ParsedAnnotation) Has(paramName string) bool {
	_, exists := p.Parameters[paramName]
	return exists
}
