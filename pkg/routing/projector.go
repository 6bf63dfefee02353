package routing

import "github.com/ivaylokenov/mytested/pkg/mvc"

// RouteValueProjection is the set of route values an expected call implies
type RouteValueProjection struct {
	Controller string
	Action     string
	Area       string

	// Values holds the controller, action and area keys, fixed route values declared on
	// the action, and every non-ignored argument keyed by its binding name.
	Values mvc.RouteValues

	// Arguments holds only the non-ignored arguments
	Arguments mvc.RouteValues

	// Ignored lists the binding names of ignored arguments
	Ignored []string
}

// Project maps a parsed call onto route values. It is pure: the same descriptor always
// yields an equal projection.
func Project(d *MethodCallDescriptor) *RouteValueProjection {
	p := &RouteValueProjection{
		Controller: d.Controller.Name,
		Action:     d.Action.Name,
		Area:       d.Controller.Area,
		Values:     make(mvc.RouteValues),
		Arguments:  make(mvc.RouteValues),
	}

	p.Values.Set(mvc.ControllerKey, p.Controller)
	p.Values.Set(mvc.ActionKey, p.Action)
	if p.Area != "" {
		p.Values.Set(mvc.AreaKey, p.Area)
	}
	for k, v := range d.Action.RouteValues {
		p.Values.Set(k, v)
	}

	for _, arg := range d.Arguments {
		if arg.Ignored {
			if !arg.Parameter.IsContext() {
				p.Ignored = append(p.Ignored, arg.BindingName)
			}
			continue
		}
		p.Values.Set(arg.BindingName, arg.Value)
		p.Arguments.Set(arg.BindingName, arg.Value)
	}
	return p
}

// IsIgnored reports whether key belongs to an ignored argument
func (p *RouteValueProjection) IsIgnored(key string) bool {
	for _, k := range p.Ignored {
		if equalFold(k, key) {
			return true
		}
	}
	return false
}
