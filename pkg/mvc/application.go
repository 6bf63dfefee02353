package mvc

import (
	"fmt"
	"io"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ivaylokenov/mytested/internal/annotations"
	"github.com/ivaylokenov/mytested/internal/diagnostics"
	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

// DefaultControllerSuffix is stripped from controller type names to form controller names
const DefaultControllerSuffix = "Controller"

// DefaultRouteTemplate is the template registered by MapDefaultRoute
const DefaultRouteTemplate = "{controller=Home}/{action=Index}/{id?}"

// Annotated is implemented by controllers that declare their routing metadata in code
type Annotated interface {
	Annotations() []string
}

type options struct {
	controllerSuffix string
	conventions      []any
	diag             *diagnostics.System
	validate         *validator.Validate
	errs             []error
}

// Option configures an Application
type Option func(*options)

// WithControllerSuffix changes the suffix stripped from controller type names
func WithControllerSuffix(suffix string) Option {
	return func(o *options) {
		o.controllerSuffix = suffix
	}
}

// WithConventions adds controller, action or parameter conventions. They run in order,
// after annotations have been applied.
func WithConventions(conventions ...any) Option {
	return func(o *options) {
		o.conventions = append(o.conventions, conventions...)
	}
}

// WithDiagnostics makes the route table trace its work to w at the given level
// (silent, error, warn, info, verbose, debug)
func WithDiagnostics(level string, w io.Writer) Option {
	return func(o *options) {
		lvl, err := diagnostics.ParseLevel(level)
		if err != nil {
			o.errs = append(o.errs, err)
			return
		}
		if w == nil {
			o.diag = diagnostics.New(lvl)
		} else {
			o.diag = diagnostics.NewWithWriter(lvl, w)
		}
	}
}

// WithValidator replaces the validator used for model validation
func WithValidator(v *validator.Validate) Option {
	return func(o *options) {
		o.validate = v
	}
}

type controllerRegistration struct {
	controller  any
	annotations []string
}

type routeRegistration struct {
	name        string
	template    string
	defaults    map[string]any
	constraints map[string]string
	dataTokens  map[string]any
}

// RouteOption configures a conventional route
type RouteOption func(*routeRegistration)

// Defaults sets default route values
func Defaults(values map[string]any) RouteOption {
	return func(r *routeRegistration) {
		for k, v := range values {
			r.defaults[k] = v
		}
	}
}

// Constraints sets route-level constraints. Each value is a constraint expression such as
// "int" or "range(1,10)", or otherwise a regular expression the whole value must match.
func Constraints(constraints map[string]string) RouteOption {
	return func(r *routeRegistration) {
		for k, v := range constraints {
			r.constraints[k] = v
		}
	}
}

// DataTokens attaches data tokens to the route
func DataTokens(tokens map[string]any) RouteOption {
	return func(r *routeRegistration) {
		for k, v := range tokens {
			r.dataTokens[k] = v
		}
	}
}

// Application collects controllers and routes and builds an immutable RouteTable
type Application struct {
	opts        options
	controllers []controllerRegistration
	routes      []routeRegistration
}

// NewApplication creates an application builder
func NewApplication(opts ...Option) *Application {
	a := &Application{opts: options{controllerSuffix: DefaultControllerSuffix}}
	for _, opt := range opts {
		opt(&a.opts)
	}
	return a
}

// AddController registers a controller (a struct value or pointer). Annotations passed here
// are added to the ones returned by the controller's Annotations method, if any.
func (a *Application) AddController(controller any, annotationLines ...string) *Application {
	a.controllers = append(a.controllers, controllerRegistration{
		controller:  controller,
		annotations: annotationLines,
	})
	return a
}

// MapRoute registers a conventional route
func (a *Application) MapRoute(name, template string, opts ...RouteOption) *Application {
	r := routeRegistration{
		name:        name,
		template:    template,
		defaults:    make(map[string]any),
		constraints: make(map[string]string),
		dataTokens:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(&r)
	}
	a.routes = append(a.routes, r)
	return a
}

// MapDefaultRoute registers "{controller=Home}/{action=Index}/{id?}" as "default"
func (a *Application) MapDefaultRoute() *Application {
	return a.MapRoute("default", DefaultRouteTemplate)
}

// MapAreaRoute registers a conventional route that only reaches controllers of area
func (a *Application) MapAreaRoute(name, area, template string, opts ...RouteOption) *Application {
	opts = append([]RouteOption{
		Defaults(map[string]any{AreaKey: area}),
		Constraints(map[string]string{AreaKey: regexp.QuoteMeta(area)}),
	}, opts...)
	return a.MapRoute(name, template, opts...)
}

// Build validates the registrations and produces the route table.
// Every problem found is reported in the returned *errors.MultipleErrors.
func (a *Application) Build() (*RouteTable, error) {
	errs := mverrors.NewMultipleErrors()
	for _, err := range a.opts.errs {
		errs.Add(mverrors.Wrap(mverrors.ConfigurationErrorCode, err.Error(), err))
	}

	var controllers []*ControllerDescriptor
	seen := make(map[reflect.Type]bool)
	for _, reg := range a.controllers {
		c := a.describeController(reg, errs)
		if c == nil {
			continue
		}
		if seen[c.Type] {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode,
				"controller %s is registered more than once", c.TypeName()))
			continue
		}
		seen[c.Type] = true
		controllers = append(controllers, c)
	}

	if err := applyConventions(controllers, a.opts.conventions); err != nil {
		errs.Add(mverrors.Wrap(mverrors.ConfigurationErrorCode, err.Error(), err))
	}
	validateDescriptors(controllers, errs)

	endpoints := buildAttributeEndpoints(controllers, errs)
	for _, r := range a.routes {
		if ep := buildConventionalEndpoint(r, errs); ep != nil {
			endpoints = append(endpoints, ep)
		}
	}
	checkRouteNames(endpoints, errs)

	if err := errs.ErrOrNil(); err != nil {
		a.opts.diag.Error("route table build failed with %d error(s)", errs.Count())
		return nil, err
	}

	validate := a.opts.validate
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	table := newRouteTable(controllers, endpoints, NewBinder(validate), a.opts.diag)
	a.opts.diag.Info("route table built: %d controller(s), %d endpoint(s)", len(controllers), len(endpoints))
	return table, nil
}

// MustBuild is Build that panics on error
func (a *Application) MustBuild() *RouteTable {
	table, err := a.Build()
	if err != nil {
		panic(err)
	}
	return table
}

func addError(errs *mverrors.MultipleErrors, code mverrors.ErrorCode, err error, loc mverrors.Location) {
	if coded, ok := err.(*mverrors.BaseError); ok {
		if coded.Loc.IsEmpty() {
			coded = coded.WithLocation(loc)
		}
		errs.Add(coded)
		return
	}
	errs.Add(mverrors.Wrap(code, err.Error(), err).WithLocation(loc))
}

func (a *Application) describeController(reg controllerRegistration, errs *mverrors.MultipleErrors) *ControllerDescriptor {
	t := reflect.TypeOf(reg.controller)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode,
			"controller must be a struct or a pointer to a struct, got %T", reg.controller))
		return nil
	}

	loc := mverrors.Location{Controller: t.Name()}
	lines := reg.annotations
	annotated, isAnnotated := reg.controller.(Annotated)
	if isAnnotated {
		if rv := reflect.ValueOf(reg.controller); rv.Kind() == reflect.Pointer && rv.IsNil() {
			annotated = reflect.New(t).Interface().(Annotated)
		}
		lines = append(append([]string(nil), annotated.Annotations()...), lines...)
	}

	var controllerAnn *annotations.ParsedAnnotation
	actionAnns := make(map[string]*annotations.ParsedAnnotation)
	routeAnns := make(map[string][]*annotations.ParsedAnnotation)
	for _, line := range lines {
		parsed, err := annotations.Parse(line)
		if err != nil {
			addError(errs, mverrors.SyntaxErrorCode, err, loc)
			continue
		}
		switch parsed.Type {
		case annotations.ControllerAnnotation:
			if controllerAnn != nil {
				errs.Add(mverrors.New(mverrors.ConfigurationErrorCode, "more than one controller annotation").WithLocation(loc))
				continue
			}
			controllerAnn = parsed
		case annotations.ActionAnnotation:
			if _, dup := actionAnns[parsed.Target]; dup {
				errs.Add(mverrors.New(mverrors.ConfigurationErrorCode, "more than one action annotation").
					WithLocation(mverrors.Location{Controller: t.Name(), Action: parsed.Target}))
				continue
			}
			actionAnns[parsed.Target] = parsed
		case annotations.RouteAnnotation:
			routeAnns[parsed.Target] = append(routeAnns[parsed.Target], parsed)
		}
	}

	c := &ControllerDescriptor{
		Type:     t,
		Name:     controllerName(t.Name(), a.opts.controllerSuffix),
		excluded: make(map[string]bool),
	}
	if controllerAnn != nil {
		c.Name = controllerAnn.GetString("Name", c.Name)
		c.Area = controllerAnn.GetString("Area")
		c.RoutePrefix = controllerAnn.GetString("Route")
	}

	ptr := reflect.PointerTo(t)
	for target := range actionAnns {
		if _, ok := ptr.MethodByName(target); !ok {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode, "annotation targets unknown method '%s'", target).WithLocation(loc))
		}
	}
	for target := range routeAnns {
		if _, ok := ptr.MethodByName(target); !ok {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode, "route annotation targets unknown method '%s'", target).WithLocation(loc))
		}
	}

	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		if isAnnotated && m.Name == "Annotations" {
			c.excluded[m.Name] = true
			continue
		}
		ann := actionAnns[m.Name]
		if ann != nil && ann.GetBool("NonAction") {
			c.excluded[m.Name] = true
			continue
		}
		if action := describeAction(c, m, ann, routeAnns[m.Name], errs); action != nil {
			c.Actions = append(c.Actions, action)
		}
	}
	return c
}

func controllerName(typeName, suffix string) string {
	if suffix != "" && typeName != suffix && strings.HasSuffix(typeName, suffix) {
		return strings.TrimSuffix(typeName, suffix)
	}
	return typeName
}

func describeAction(c *ControllerDescriptor, m reflect.Method, ann *annotations.ParsedAnnotation,
	routes []*annotations.ParsedAnnotation, errs *mverrors.MultipleErrors) *ActionDescriptor {

	loc := mverrors.Location{Controller: c.TypeName(), Action: m.Name}
	if m.Type.IsVariadic() {
		errs.Add(mverrors.New(mverrors.ConfigurationErrorCode, "variadic actions are not supported").WithLocation(loc))
		return nil
	}

	action := &ActionDescriptor{
		Controller: c,
		MethodName: m.Name,
		Method:     m,
		Name:       m.Name,
		IsAsync:    m.Type.NumOut() > 0 && m.Type.Out(0).Implements(futureType),
	}

	var names []string
	if ann != nil {
		names = ann.GetStringSlice("Params")
		action.Name = ann.GetString("Name", m.Name)
		for _, method := range ann.GetStringSlice("Methods") {
			action.HTTPMethods = append(action.HTTPMethods, strings.ToUpper(method))
		}
		action.RouteValues = ann.GetStringMap("RouteValues")
	}

	var bindable []*ParameterDescriptor
	for i := 1; i < m.Type.NumIn(); i++ {
		p := &ParameterDescriptor{Action: action, Index: i - 1, Type: m.Type.In(i)}
		if p.Type == contextType {
			p.Name, p.BindingName, p.Source = "ctx", "ctx", BindingServices
		} else {
			bindable = append(bindable, p)
		}
		action.Parameters = append(action.Parameters, p)
	}

	if len(names) != len(bindable) {
		if len(names) == 0 {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode,
				"action has %d parameter(s) but no -Params annotation names them", len(bindable)).
				WithLocation(loc).
				WithSuggestion(fmt.Sprintf("Add //mvc::action %s -Params=<name>,... listing the parameter names in order", m.Name)))
		} else {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode,
				"-Params lists %d name(s) but the method has %d bindable parameter(s)", len(names), len(bindable)).
				WithLocation(loc))
		}
		return nil
	}

	for i, p := range bindable {
		p.Name, p.BindingName = names[i], names[i]
	}

	if ann != nil {
		if body := ann.GetString("FromBody"); body != "" {
			p, ok := paramNamed(bindable, body)
			if !ok {
				errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode, "-FromBody names unknown parameter '%s'", body).WithLocation(loc))
			} else {
				p.Source = BindingBody
			}
		}
		for _, name := range ann.GetStringSlice("FromQuery") {
			p, ok := paramNamed(bindable, name)
			if !ok {
				errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode, "-FromQuery names unknown parameter '%s'", name).WithLocation(loc))
				continue
			}
			p.Source = BindingQuery
		}
	}

	for _, r := range routes {
		method := strings.ToUpper(r.GetPositional("method"))
		if method == "ANY" {
			method = ""
		}
		action.Routes = append(action.Routes, AttributeRoute{
			Method:   method,
			Template: r.GetPositional("template"),
			Name:     r.GetString("Name"),
			Order:    r.GetInt("Order"),
		})
	}
	if len(action.Routes) == 0 && c.RoutePrefix != "" {
		action.Routes = []AttributeRoute{{}}
	}
	return action
}

func paramNamed(params []*ParameterDescriptor, name string) (*ParameterDescriptor, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func validateDescriptors(controllers []*ControllerDescriptor, errs *mverrors.MultipleErrors) {
	for _, c := range controllers {
		if c.Name == "" {
			errs.Add(mverrors.New(mverrors.ConfigurationErrorCode, "controller name must not be empty").
				WithLocation(mverrors.Location{Controller: c.TypeName()}))
		}
		for _, a := range c.Actions {
			loc := mverrors.Location{Controller: c.TypeName(), Action: a.MethodName}
			if a.Name == "" {
				errs.Add(mverrors.New(mverrors.ConfigurationErrorCode, "action name must not be empty").WithLocation(loc))
			}
			keys := make(map[string]string)
			for _, p := range a.BindableParameters() {
				key := strings.ToLower(p.BindingName)
				if other, dup := keys[key]; dup {
					errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode,
						"parameters '%s' and '%s' bind from the same key '%s'", other, p.Name, p.BindingName).WithLocation(loc))
				}
				keys[key] = p.Name
			}
		}
	}
}

var routeTokens = regexp.MustCompile(`(?i)\[(controller|action|area)\]`)

func replaceTokens(template string, a *ActionDescriptor) string {
	return routeTokens.ReplaceAllStringFunc(template, func(token string) string {
		switch strings.ToLower(token[1 : len(token)-1]) {
		case ControllerKey:
			return a.Controller.Name
		case ActionKey:
			return a.Name
		default:
			return a.Controller.Area
		}
	})
}

func combineTemplates(prefix, template string) string {
	switch {
	case strings.HasPrefix(template, "/"), strings.HasPrefix(template, "~/"):
		return template
	case prefix == "":
		return template
	case template == "":
		return prefix
	default:
		return strings.TrimSuffix(prefix, "/") + "/" + template
	}
}

func buildAttributeEndpoints(controllers []*ControllerDescriptor, errs *mverrors.MultipleErrors) []*Endpoint {
	var endpoints []*Endpoint
	for _, c := range controllers {
		for _, a := range c.Actions {
			for _, r := range a.Routes {
				raw := replaceTokens(combineTemplates(c.RoutePrefix, r.Template), a)
				tmpl, err := ParseTemplate(raw)
				if err != nil {
					addError(errs, mverrors.SyntaxErrorCode, err, mverrors.Location{Controller: c.TypeName(), Action: a.MethodName})
					continue
				}

				defaults := RouteValues{ControllerKey: c.Name, ActionKey: a.Name}
				if c.Area != "" {
					defaults[AreaKey] = c.Area
				}
				for k, v := range a.RouteValues {
					defaults.Set(k, v)
				}

				methods := a.HTTPMethods
				if r.Method != "" {
					methods = []string{r.Method}
				}

				endpoints = append(endpoints, &Endpoint{
					Kind:        AttributeEndpoint,
					Name:        r.Name,
					Template:    tmpl,
					Defaults:    defaults,
					DataTokens:  RouteValues{},
					Action:      a,
					HTTPMethods: methods,
					Order:       r.Order,
				})
			}
		}
	}
	sort.SliceStable(endpoints, func(i, j int) bool {
		return endpoints[i].Order < endpoints[j].Order
	})
	return endpoints
}

func buildConventionalEndpoint(r routeRegistration, errs *mverrors.MultipleErrors) *Endpoint {
	tmpl, err := ParseTemplate(r.template)
	if err != nil {
		addError(errs, mverrors.SyntaxErrorCode, err, mverrors.Location{})
		return nil
	}

	ep := &Endpoint{
		Kind:            ConventionalEndpoint,
		Name:            r.name,
		Template:        tmpl,
		Defaults:        NewRouteValues(r.defaults),
		DataTokens:      NewRouteValues(r.dataTokens),
		Constraints:     make(map[string]RouteConstraint, len(r.constraints)),
		ConstraintExprs: r.constraints,
	}
	for key, expr := range r.constraints {
		c, err := NewInlineConstraint(expr)
		if err != nil {
			errs.Add(mverrors.Wrapf(mverrors.ConfigurationErrorCode, err,
				"route '%s': constraint for '%s' is invalid: %v", r.name, key, err))
			continue
		}
		ep.Constraints[key] = c
	}
	for _, p := range tmpl.Parameters() {
		if p.HasDefault && ep.Defaults.Has(p.Name) {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode,
				"route '%s': parameter '%s' has both an inline and an explicit default", r.name, p.Name))
		}
	}
	return ep
}

func checkRouteNames(endpoints []*Endpoint, errs *mverrors.MultipleErrors) {
	templates := make(map[string]string)
	for _, ep := range endpoints {
		if ep.Name == "" {
			continue
		}
		key := strings.ToLower(ep.Name)
		if existing, ok := templates[key]; ok && existing != ep.Template.String() {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode,
				"route name '%s' is used by different templates '%s' and '%s'", ep.Name, existing, ep.Template))
			continue
		}
		templates[key] = ep.Template.String()
	}
}
