package mvc

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/ivaylokenov/mytested/internal/cache"
	"github.com/ivaylokenov/mytested/internal/diagnostics"
	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

// EndpointKind distinguishes attribute routes from conventional routes
type EndpointKind int

const (
	AttributeEndpoint EndpointKind = iota
	ConventionalEndpoint
)

func (k EndpointKind) String() string {
	if k == AttributeEndpoint {
		return "attribute"
	}
	return "conventional"
}

// Endpoint is one candidate of the route table
type Endpoint struct {
	Kind            EndpointKind
	Name            string
	Template        *RouteTemplate
	Defaults        RouteValues
	Constraints     map[string]RouteConstraint
	ConstraintExprs map[string]string
	DataTokens      RouteValues
	Action          *ActionDescriptor // attribute endpoints only
	HTTPMethods     []string          // attribute endpoints only, empty accepts any method
	Order           int
}

func (e *Endpoint) String() string {
	if e.Kind == AttributeEndpoint {
		return fmt.Sprintf("attribute %s -> %s", e.Template, e.Action.DisplayName())
	}
	return fmt.Sprintf("conventional '%s' %s", e.Name, e.Template)
}

// Match matches a canonical path and applies defaults and route-level constraints
func (e *Endpoint) Match(path string) (RouteValues, bool) {
	values, ok := e.Template.Match(path)
	if !ok {
		return nil, false
	}
	for k, v := range e.Defaults {
		values.SetDefault(k, v)
	}
	for key, c := range e.Constraints {
		if !values.Has(key) {
			continue
		}
		if !c.Match(values.String(key)) {
			return nil, false
		}
	}
	return values, true
}

func (e *Endpoint) allows(a *ActionDescriptor, method string) bool {
	if e.Kind == ConventionalEndpoint {
		return a.AllowsMethod(method)
	}
	if len(e.HTTPMethods) == 0 {
		return true
	}
	for _, m := range e.HTTPMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

var reservedKeys = []string{ControllerKey, ActionKey, AreaKey}

func isReserved(key string) bool {
	for _, r := range reservedKeys {
		if strings.EqualFold(r, key) {
			return true
		}
	}
	return false
}

// Generate builds a URL for values. Values the template does not consume are appended
// as a query string.
func (e *Endpoint) Generate(values RouteValues) (string, error) {
	for key, def := range e.Defaults {
		if _, isParam := e.Template.Parameter(key); isParam {
			continue
		}
		v, ok := values.Get(key)
		if ok && !strings.EqualFold(FormatValue(v), FormatValue(def)) {
			return "", mverrors.NewGenerationError(fmt.Sprintf(
				"route requires %s '%s' but '%s' was supplied", key, FormatValue(def), FormatValue(v)))
		}
		if (!ok || FormatValue(v) == "") && strings.EqualFold(key, AreaKey) && FormatValue(def) != "" {
			return "", mverrors.NewGenerationError(fmt.Sprintf(
				"route requires %s '%s' but none was supplied", key, FormatValue(def)))
		}
	}
	for _, key := range reservedKeys {
		if values.String(key) == "" {
			continue
		}
		if _, isParam := e.Template.Parameter(key); !isParam && !e.Defaults.Has(key) {
			return "", mverrors.NewGenerationError(fmt.Sprintf("route cannot carry a value for '%s'", key))
		}
	}

	path, used, err := e.Template.Bind(values)
	if err != nil {
		return "", err
	}
	for key, c := range e.Constraints {
		v, ok := values.Get(key)
		if !ok {
			continue
		}
		if !c.Match(FormatValue(v)) {
			return "", mverrors.NewGenerationError(fmt.Sprintf(
				"value '%s' for '%s' does not satisfy the route constraint", FormatValue(v), key))
		}
	}

	consumed := make(RouteValues, len(used))
	for _, k := range used {
		consumed[k] = true
	}
	query := make(url.Values)
	for _, k := range values.Keys() {
		if consumed.Has(k) || e.Defaults.Has(k) || isReserved(k) {
			continue
		}
		if v := values[k]; v != nil {
			query.Set(k, FormatValue(v))
		}
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, nil
}

// RouteTable is the immutable result of Application.Build. It is safe for concurrent use.
type RouteTable struct {
	controllers []*ControllerDescriptor
	byType      map[reflect.Type]*ControllerDescriptor
	endpoints   []*Endpoint
	binder      *Binder
	diag        *diagnostics.System
	urls        *cache.Cache[string, string]

	// requiredKeys are the keys any action declares fixed route values for
	requiredKeys []string
}

func newRouteTable(controllers []*ControllerDescriptor, endpoints []*Endpoint, binder *Binder, diag *diagnostics.System) *RouteTable {
	t := &RouteTable{
		controllers: controllers,
		byType:      make(map[reflect.Type]*ControllerDescriptor, len(controllers)),
		endpoints:   endpoints,
		binder:      binder,
		diag:        diag,
		urls:        cache.New[string, string](),
	}
	seen := make(map[string]bool)
	for _, c := range controllers {
		t.byType[c.Type] = c
		for _, a := range c.Actions {
			for k := range a.RouteValues {
				if key := strings.ToLower(k); !seen[key] {
					seen[key] = true
					t.requiredKeys = append(t.requiredKeys, key)
				}
			}
		}
	}
	return t
}

// Controllers returns the registered controllers in registration order
func (t *RouteTable) Controllers() []*ControllerDescriptor {
	return append([]*ControllerDescriptor(nil), t.controllers...)
}

// Controller returns the first controller with the given routing name (case-insensitive)
func (t *RouteTable) Controller(name string) (*ControllerDescriptor, bool) {
	for _, c := range t.controllers {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// ControllerFor returns the controller registered for a type (T or *T)
func (t *RouteTable) ControllerFor(typ reflect.Type) (*ControllerDescriptor, bool) {
	if typ == nil {
		return nil, false
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	c, ok := t.byType[typ]
	return c, ok
}

// Endpoints returns the endpoints in evaluation order
func (t *RouteTable) Endpoints() []*Endpoint {
	return append([]*Endpoint(nil), t.endpoints...)
}

// Endpoint returns the endpoint with the given route name
func (t *RouteTable) Endpoint(name string) (*Endpoint, bool) {
	for _, ep := range t.endpoints {
		if ep.Name != "" && strings.EqualFold(ep.Name, name) {
			return ep, true
		}
	}
	return nil, false
}

// Binder returns the model binder used during resolution
func (t *RouteTable) Binder() *Binder {
	return t.binder
}

// findActions returns every action addressed by controller, action and area values
func (t *RouteTable) findActions(values RouteValues) []*ActionDescriptor {
	controller, action, area := values.String(ControllerKey), values.String(ActionKey), values.String(AreaKey)
	if controller == "" || action == "" {
		return nil
	}
	var found []*ActionDescriptor
	for _, c := range t.controllers {
		if !strings.EqualFold(c.Name, controller) || !strings.EqualFold(c.Area, area) {
			continue
		}
		found = append(found, c.ActionsNamed(action)...)
	}
	return found
}

// URL generates a URL for route values that must name a controller and an action.
// Attribute-routed actions generate through their own templates, everything else through
// the conventional routes in registration order.
func (t *RouteTable) URL(values RouteValues) (string, error) {
	if values.String(ControllerKey) == "" || values.String(ActionKey) == "" {
		return "", mverrors.NewGenerationError("route values must include 'controller' and 'action'")
	}
	return t.urls.GetOrCompute(values.Format(), func() (string, error) {
		return t.generate(values)
	})
}

func (t *RouteTable) generate(values RouteValues) (string, error) {
	var lastErr error
	actions := t.findActions(values)
	conventional := len(actions) == 0
	for _, a := range actions {
		if !a.AttributeRouted() {
			conventional = true
			continue
		}
		for _, ep := range t.endpoints {
			if ep.Action != a {
				continue
			}
			u, err := ep.Generate(values)
			if err == nil {
				t.diag.Debug("generated %s from %s via %s", u, values.Format(), ep)
				return u, nil
			}
			lastErr = err
		}
	}

	if conventional {
		for _, ep := range t.endpoints {
			if ep.Kind != ConventionalEndpoint {
				continue
			}
			u, err := ep.Generate(values)
			if err == nil {
				t.diag.Debug("generated %s from %s via %s", u, values.Format(), ep)
				return u, nil
			}
			lastErr = err
		}
	}

	err := mverrors.NewGenerationError(fmt.Sprintf("no route could generate a URL for %s", values.Format()))
	if lastErr != nil {
		err = err.WithCause(lastErr)
	}
	return "", err
}
