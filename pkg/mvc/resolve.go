package mvc

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

// RouteData is the raw routing result
type RouteData struct {
	Values     RouteValues
	DataTokens RouteValues
	RouteName  string
	Template   string
}

// ResolvedRouteContext is the outcome of resolving a request. It is read-only once returned.
type ResolvedRouteContext struct {
	IsResolved         bool
	ControllerType     reflect.Type
	ControllerName     string
	Action             string
	ActionDescriptor   *ActionDescriptor
	ActionArguments    RouteValues
	RouteData          RouteData
	ModelState         *ModelState
	MethodIsNotAllowed bool
	UnresolvedError    string
	Request            *Request
	Endpoint           *Endpoint
}

func unresolved(req *Request, reason string) *ResolvedRouteContext {
	return &ResolvedRouteContext{
		ActionArguments: RouteValues{},
		RouteData:       RouteData{Values: RouteValues{}, DataTokens: RouteValues{}},
		ModelState:      NewModelState(),
		UnresolvedError: reason,
		Request:         req,
	}
}

// Resolve finds the action a request reaches. Endpoints are tried in order: attribute routes
// by their order then registration, conventional routes by registration. The first endpoint
// whose template and constraints match, that selects an action, and that allows the method wins.
func (t *RouteTable) Resolve(req *Request) *ResolvedRouteContext {
	path := req.CanonicalPath()
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	t.diag.Debug("resolving %s %s", method, path)
	t.diag.Indent()
	defer t.diag.Unindent()

	methodRejected := false
	for _, ep := range t.endpoints {
		values, ok := ep.Match(path)
		if !ok {
			t.diag.Debug("%s: no match", ep)
			continue
		}

		candidates := t.candidates(ep, values)
		if len(candidates) == 0 {
			t.diag.Debug("%s: matched %s but selects no action", ep, values.Format())
			continue
		}

		var allowed []*ActionDescriptor
		for _, a := range candidates {
			if ep.allows(a, method) {
				allowed = append(allowed, a)
			}
		}
		if len(allowed) == 0 {
			t.diag.Debug("%s: %s not allowed", ep, method)
			methodRejected = true
			continue
		}

		action, err := selectAction(allowed, values, req.QueryMap())
		if err != nil {
			t.diag.Debug("%s: %v", ep, err)
			return unresolved(req, err.Error())
		}

		t.diag.Debug("%s: selected %s", ep, action.DisplayName())
		return t.bind(req, ep, action, values)
	}

	if methodRejected {
		ctx := unresolved(req, fmt.Sprintf("method %s is not allowed for path %s", method, path))
		ctx.MethodIsNotAllowed = true
		return ctx
	}
	return unresolved(req, fmt.Sprintf("no route matched path %s", path))
}

// ResolveValues generates a URL from explicit route values and resolves a GET request for it
func (t *RouteTable) ResolveValues(values RouteValues) *ResolvedRouteContext {
	target, err := t.URL(values)
	if err != nil {
		return unresolved(nil, err.Error())
	}
	req, err := NewRequest(http.MethodGet, target)
	if err != nil {
		return unresolved(nil, err.Error())
	}
	return t.Resolve(req)
}

// candidates lists the actions an endpoint can select for matched values
func (t *RouteTable) candidates(ep *Endpoint, values RouteValues) []*ActionDescriptor {
	if ep.Kind == AttributeEndpoint {
		return []*ActionDescriptor{ep.Action}
	}

	var found []*ActionDescriptor
	for _, a := range t.findActions(values) {
		if a.AttributeRouted() {
			continue
		}
		if !t.requiredValuesMatch(a, values) {
			continue
		}
		found = append(found, a)
	}
	return found
}

// requiredValuesMatch compares every key some action declares a fixed value for. Actions
// that do not declare a key require it to be absent.
func (t *RouteTable) requiredValuesMatch(a *ActionDescriptor, values RouteValues) bool {
	for _, key := range t.requiredKeys {
		want := ""
		for k, v := range a.RouteValues {
			if strings.EqualFold(k, key) {
				want = v
			}
		}
		if !strings.EqualFold(values.String(key), want) {
			return false
		}
	}
	return true
}

// selectAction picks the action whose parameters are best satisfied: fewest missing values
// first, then most supplied values. A tie is ambiguous.
func selectAction(actions []*ActionDescriptor, values RouteValues, query QueryMap) (*ActionDescriptor, error) {
	if len(actions) == 1 {
		return actions[0], nil
	}

	type score struct{ missing, satisfied int }
	better := func(a, b score) bool {
		if a.missing != b.missing {
			return a.missing < b.missing
		}
		return a.satisfied > b.satisfied
	}

	var best []*ActionDescriptor
	var bestScore score
	for _, a := range actions {
		var s score
		for _, p := range a.BindableParameters() {
			if p.Source == BindingBody {
				continue
			}
			if values.Has(p.BindingName) || query.Has(p.BindingName) {
				s.satisfied++
			} else {
				s.missing++
			}
		}
		switch {
		case len(best) == 0 || better(s, bestScore):
			best, bestScore = []*ActionDescriptor{a}, s
		case !better(bestScore, s):
			best = append(best, a)
		}
	}

	if len(best) > 1 {
		names := make([]string, len(best))
		for i, a := range best {
			names[i] = a.DisplayName()
		}
		return nil, fmt.Errorf("the request matched multiple actions: %s", strings.Join(names, ", "))
	}
	return best[0], nil
}

func (t *RouteTable) bind(req *Request, ep *Endpoint, action *ActionDescriptor, values RouteValues) *ResolvedRouteContext {
	args, state := t.binder.Bind(action, values, req)
	if !state.IsValid() {
		for _, key := range sortedErrorKeys(state) {
			t.diag.Debug("model state %s: %s", key, strings.Join(state.Errors(key), "; "))
			for _, cause := range state.causes[key] {
				t.diag.Debug("%v: %v", cause, errors.Unwrap(cause))
			}
		}
	}

	return &ResolvedRouteContext{
		IsResolved:       true,
		ControllerType:   action.Controller.Type,
		ControllerName:   action.Controller.Name,
		Action:           action.Name,
		ActionDescriptor: action,
		ActionArguments:  args,
		RouteData: RouteData{
			Values:     values,
			DataTokens: ep.DataTokens.Clone(),
			RouteName:  ep.Name,
			Template:   ep.Template.String(),
		},
		ModelState: state,
		Request:    req,
		Endpoint:   ep,
	}
}
