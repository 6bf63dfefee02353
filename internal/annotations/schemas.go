package annotations

import (
	"fmt"
	"strings"
	"unicode"
)

// Built-in annotation schemas

// ControllerAnnotationSchema defines the schema for //mvc::controller annotations
var ControllerAnnotationSchema = AnnotationSchema{
	Type:        ControllerAnnotation,
	Description: "Overrides controller-level routing metadata",
	Parameters: map[string]ParameterSpec{
		"Name": {
			Type:        StringType,
			Description: "Controller name used for routing instead of the type name without its suffix",
			Validator:   ValidateRouteName,
		},
		"Area": {
			Type:        StringType,
			Description: "Area the controller belongs to; added as the reserved 'area' route value",
			Validator:   ValidateRouteName,
		},
		"Route": {
			Type:        StringType,
			Description: "Route template prefix for every attribute route of the controller (e.g., api/[controller])",
		},
	},
	Examples: []string{
		"//mvc::controller -Name=Home",
		"//mvc::controller -Area=Admin",
		"//mvc::controller -Route=api/[controller]",
	},
}

// ActionAnnotationSchema defines the schema for //mvc::action annotations
var ActionAnnotationSchema = AnnotationSchema{
	Type:        ActionAnnotation,
	Description: "Describes an action method: parameter names, renames and constraints",
	Positional: []PositionalSpec{
		{Name: "method", Description: "Go method name on the controller", Validator: ValidateMethodName},
	},
	Parameters: map[string]ParameterSpec{
		"Name": {
			Type:        StringType,
			Description: "Action name used for routing instead of the method name",
			Validator:   ValidateRouteName,
		},
		"Params": {
			Type:        StringSliceType,
			Description: "Comma-separated parameter names in declaration order (context.Context parameters are skipped)",
		},
		"Methods": {
			Type:        StringSliceType,
			Description: "Comma-separated HTTP methods the action accepts",
			Validator:   ValidateHTTPMethods,
		},
		"NonAction": {
			Type:         BoolType,
			DefaultValue: false,
			Description:  "Excludes the method from action discovery",
		},
		"FromBody": {
			Type:        StringType,
			Description: "Parameter bound from the JSON request body",
		},
		"FromQuery": {
			Type:        StringSliceType,
			Description: "Parameters bound only from the query string",
		},
		"RouteValues": {
			Type:        StringMapType,
			Description: "Fixed route values the action requires (key:value,key:value)",
		},
	},
	Examples: []string{
		"//mvc::action Details -Params=id",
		"//mvc::action DetailsWithoutID -Name=Details",
		"//mvc::action Create -Params=model -FromBody=model -Methods=POST",
		"//mvc::action Helper -NonAction",
		"//mvc::action Versioned -RouteValues=version:v2",
	},
}

// RouteAnnotationSchema defines the schema for //mvc::route annotations
var RouteAnnotationSchema = AnnotationSchema{
	Type:        RouteAnnotation,
	Description: "Attaches an attribute route to an action method",
	Positional: []PositionalSpec{
		{Name: "method", Description: "HTTP method or ANY", Validator: ValidateRouteMethod},
		{Name: "template", Description: "Route template, relative to the controller route unless it starts with '/'"},
	},
	Parameters: map[string]ParameterSpec{
		"Action": {
			Type:        StringType,
			Required:    true,
			Description: "Go method name the route is attached to",
			Validator: func(v interface{}) error {
				return ValidateMethodName(v.(string))
			},
		},
		"Name": {
			Type:        StringType,
			Description: "Route name",
		},
		"Order": {
			Type:         IntType,
			DefaultValue: 0,
			Description:  "Evaluation order among attribute routes; lower runs first",
		},
	},
	Examples: []string{
		"//mvc::route GET /api/items/{id:int} -Action=Get",
		"//mvc::route POST items -Action=Create -Name=CreateItem",
		"//mvc::route ANY /legacy/{*rest} -Action=Legacy -Order=10",
	},
}

// HTTPMethods lists the methods accepted by -Methods and route annotations
var HTTPMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// ValidateHTTPMethod validates a single HTTP method name
func ValidateHTTPMethod(method string) error {
	method = strings.ToUpper(method)
	for _, valid := range HTTPMethods {
		if method == valid {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s, got '%s'", strings.Join(HTTPMethods, ", "), method)
}

// ValidateHTTPMethods validates a list of HTTP method names
func ValidateHTTPMethods(v interface{}) error {
	for _, method := range v.([]string) {
		if err := ValidateHTTPMethod(method); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRouteMethod validates the positional method of a route annotation
func ValidateRouteMethod(method string) error {
	if strings.EqualFold(method, "ANY") {
		return nil
	}
	return ValidateHTTPMethod(method)
}

// ValidateMethodName validates that a name can be an exported Go method
func ValidateMethodName(name string) error {
	if name == "" {
		return fmt.Errorf("method name must not be empty")
	}
	for i, r := range name {
		if i == 0 && !unicode.IsUpper(r) {
			return fmt.Errorf("method '%s' must be exported", name)
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return fmt.Errorf("method '%s' is not a valid identifier", name)
		}
	}
	return nil
}

// ValidateRouteName validates controller, area and action names
func ValidateRouteName(v interface{}) error {
	name := v.(string)
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.ContainsAny(name, "/{}?") {
		return fmt.Errorf("name '%s' must not contain '/', '{', '}' or '?'", name)
	}
	return nil
}
