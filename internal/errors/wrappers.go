package errors

import "fmt"

// Common error wrapping patterns used across the framework packages

// WrapParseError wraps an error with a "failed to parse" message
func WrapParseError(item string, cause error) *BaseError {
	return Wrap(SyntaxErrorCode, fmt.Sprintf("failed to parse %s", item), cause)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapBindingError wraps a model binding failure for a single action parameter
func WrapBindingError(parameter string, cause error) *BaseError {
	return Wrap(BindingErrorCode, fmt.Sprintf("failed to bind parameter '%s'", parameter), cause).
		WithContext("parameter", parameter)
}

// NewExpressionError creates an error describing an invalid action call expression
func NewExpressionError(message string) *BaseError {
	return New(ExpressionErrorCode, message)
}

// NewTemplateError creates an error describing an invalid route template
func NewTemplateError(template, reason string) *BaseError {
	return Newf(SyntaxErrorCode, "invalid route template '%s': %s", template, reason).
		WithContext("template", template)
}

// NewGenerationError creates an error describing a failed reverse URL generation
func NewGenerationError(message string) *BaseError {
	return New(GenerationErrorCode, message)
}
