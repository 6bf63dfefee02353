package mvc

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// BindingSource tells model binding where a parameter's value comes from
type BindingSource int

const (
	BindingAuto BindingSource = iota
	BindingRoute
	BindingQuery
	BindingBody
	BindingServices
)

func (s BindingSource) String() string {
	switch s {
	case BindingRoute:
		return "route"
	case BindingQuery:
		return "query"
	case BindingBody:
		return "body"
	case BindingServices:
		return "services"
	default:
		return "auto"
	}
}

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	futureType  = reflect.TypeFor[Future]()
)

// ControllerDescriptor describes a registered controller.
// Descriptors are adjusted by conventions during Build and must not be modified afterwards.
type ControllerDescriptor struct {
	Type        reflect.Type // struct type, never a pointer
	Name        string       // routing name
	Area        string
	RoutePrefix string
	Actions     []*ActionDescriptor

	excluded map[string]bool
}

// TypeName returns the Go type name of the controller
func (c *ControllerDescriptor) TypeName() string {
	return c.Type.Name()
}

// Action returns the action bound to the Go method with the given name
func (c *ControllerDescriptor) Action(methodName string) (*ActionDescriptor, bool) {
	for _, a := range c.Actions {
		if a.MethodName == methodName {
			return a, true
		}
	}
	return nil, false
}

// ActionsNamed returns the actions whose routing name matches name (case-insensitive)
func (c *ControllerDescriptor) ActionsNamed(name string) []*ActionDescriptor {
	var actions []*ActionDescriptor
	for _, a := range c.Actions {
		if strings.EqualFold(a.Name, name) {
			actions = append(actions, a)
		}
	}
	return actions
}

// IsExcluded reports whether methodName was excluded from action discovery
func (c *ControllerDescriptor) IsExcluded(methodName string) bool {
	return c.excluded[methodName]
}

// AttributeRoute is a route declared directly on an action
type AttributeRoute struct {
	Method   string // HTTP method, empty for any
	Template string // as declared, before combination with the controller prefix
	Name     string
	Order    int
}

// ActionDescriptor describes one action method
type ActionDescriptor struct {
	Controller  *ControllerDescriptor
	MethodName  string
	Method      reflect.Method // taken from the pointer receiver's method set
	Name        string         // routing name
	HTTPMethods []string       // empty accepts any method
	RouteValues map[string]string
	Routes      []AttributeRoute
	Parameters  []*ParameterDescriptor
	IsAsync     bool
}

// DisplayName returns Controller.Method
func (a *ActionDescriptor) DisplayName() string {
	return a.Controller.TypeName() + "." + a.MethodName
}

// AttributeRouted reports whether the action is reachable only through its own routes
func (a *ActionDescriptor) AttributeRouted() bool {
	return len(a.Routes) > 0
}

// AllowsMethod reports whether the action accepts the HTTP method
func (a *ActionDescriptor) AllowsMethod(method string) bool {
	if len(a.HTTPMethods) == 0 {
		return true
	}
	for _, m := range a.HTTPMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// Parameter returns the parameter bound under name (case-insensitive)
func (a *ActionDescriptor) Parameter(name string) (*ParameterDescriptor, bool) {
	for _, p := range a.Parameters {
		if strings.EqualFold(p.BindingName, name) {
			return p, true
		}
	}
	return nil, false
}

// BindableParameters returns every parameter except context parameters
func (a *ActionDescriptor) BindableParameters() []*ParameterDescriptor {
	var params []*ParameterDescriptor
	for _, p := range a.Parameters {
		if p.Source != BindingServices {
			params = append(params, p)
		}
	}
	return params
}

// Invoke calls the action on controller (a T or *T) with arguments looked up by binding
// name. Context parameters receive ctx. Futures returned by the action are awaited.
func (a *ActionDescriptor) Invoke(ctx context.Context, controller any, args RouteValues) (any, error) {
	recv := reflect.ValueOf(controller)
	ptrType := reflect.PointerTo(a.Controller.Type)
	switch {
	case !recv.IsValid():
		return nil, fmt.Errorf("cannot invoke %s on a nil controller", a.DisplayName())
	case recv.Type() == a.Controller.Type:
		ptr := reflect.New(a.Controller.Type)
		ptr.Elem().Set(recv)
		recv = ptr
	case recv.Type() != ptrType:
		return nil, fmt.Errorf("cannot invoke %s on a %s", a.DisplayName(), recv.Type())
	}

	in := []reflect.Value{recv}
	for _, p := range a.Parameters {
		if p.Source == BindingServices {
			if ctx == nil {
				ctx = context.Background()
			}
			in = append(in, reflect.ValueOf(ctx))
			continue
		}
		arg, err := p.argument(args)
		if err != nil {
			return nil, err
		}
		in = append(in, arg)
	}

	return unpackResults(a.Method.Func.Call(in))
}

func unpackResults(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type().Implements(errorType) {
		if !out[n-1].IsNil() {
			err = out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, err
	}

	result := out[0].Interface()
	if err != nil {
		return result, err
	}
	if future, ok := result.(Future); ok {
		return Await(future)
	}
	return result, nil
}

// ParameterDescriptor describes one action parameter
type ParameterDescriptor struct {
	Action      *ActionDescriptor
	Index       int    // position in the method signature, receiver excluded
	Name        string // declared name
	BindingName string // route value / query / form key
	Type        reflect.Type
	Source      BindingSource
}

// IsContext reports whether the parameter receives the request context
func (p *ParameterDescriptor) IsContext() bool {
	return p.Source == BindingServices
}

func (p *ParameterDescriptor) argument(args RouteValues) (reflect.Value, error) {
	value, ok := args.Get(p.BindingName)
	if !ok || value == nil {
		return reflect.Zero(p.Type), nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(p.Type):
		return rv, nil
	case rv.Type().ConvertibleTo(p.Type) && rv.Kind() != reflect.String && p.Type.Kind() != reflect.String:
		return rv.Convert(p.Type), nil
	}
	if s, ok := value.(string); ok {
		converted, err := ConvertString(s, p.Type)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("argument '%s': %w", p.BindingName, err)
		}
		return converted, nil
	}
	return reflect.Value{}, fmt.Errorf("argument '%s' of type %T is not assignable to %s", p.BindingName, value, p.Type)
}
