package routing

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	mverrors "github.com/ivaylokenov/mytested/internal/errors"
	"github.com/ivaylokenov/mytested/pkg/mvc"
	"github.com/ivaylokenov/mytested/pkg/with"
)

const invalidExpression = "Provided expression is not valid - "

// ActionCall is an expected action invocation: a controller method plus its arguments
type ActionCall struct {
	method any
	args   []any
}

// Call captures an action invocation. method is a method expression such as
// (*BooksController).Details or a bound method value such as books.Details. Each argument
// is a plain value, with.Value(v) or with.No[T]().
func Call(method any, args ...any) ActionCall {
	return ActionCall{method: method, args: args}
}

// ArgumentDescriptor is one evaluated argument of an expected call
type ArgumentDescriptor struct {
	Name        string
	BindingName string
	Type        reflect.Type
	Value       any
	Ignored     bool
	Parameter   *mvc.ParameterDescriptor
}

// MethodCallDescriptor is a parsed and validated ActionCall
type MethodCallDescriptor struct {
	Controller *mvc.ControllerDescriptor
	Action     *mvc.ActionDescriptor
	Arguments  []ArgumentDescriptor
}

// ControllerType returns the controller's struct type
func (d *MethodCallDescriptor) ControllerType() reflect.Type {
	return d.Controller.Type
}

// MethodName returns the Go name of the called method
func (d *MethodCallDescriptor) MethodName() string {
	return d.Action.MethodName
}

type funcKind int

const (
	unboundMethod funcKind = iota
	boundMethod
	staticFunc
	literalFunc
)

// funcInfo is what the runtime name and signature of a func value reveal
type funcInfo struct {
	kind         funcKind
	methodName   string
	receiverType reflect.Type // unbound methods only
	pkgPath      string       // bound methods only
	typeName     string       // bound methods only
}

var literalSuffix = regexp.MustCompile(`\.func\d+(\.\d+)*$`)

func inspectFunc(fullName string, funcType reflect.Type) funcInfo {
	if literalSuffix.MatchString(fullName) {
		return funcInfo{kind: literalFunc}
	}

	lastSlash := strings.LastIndex(fullName, "/")
	pkgDir, remainder := "", fullName
	if lastSlash != -1 {
		pkgDir, remainder = fullName[:lastSlash+1], fullName[lastSlash+1:]
	}
	dot := strings.Index(remainder, ".")
	if dot == -1 {
		return funcInfo{kind: literalFunc}
	}
	pkgPath := pkgDir + remainder[:dot]
	// the runtime escapes dots and other reserved bytes of the last path element
	if unescaped, err := url.PathUnescape(pkgPath); err == nil {
		pkgPath = unescaped
	}
	member := strings.ReplaceAll(remainder[dot+1:], "[...]", "")

	if bound, ok := strings.CutSuffix(member, "-fm"); ok {
		typePart, method, found := cutLast(bound, ".")
		if !found {
			return funcInfo{kind: literalFunc}
		}
		typeName := strings.TrimSuffix(strings.TrimPrefix(typePart, "(*"), ")")
		return funcInfo{kind: boundMethod, methodName: method, pkgPath: pkgPath, typeName: typeName}
	}

	if !strings.HasPrefix(member, "(*") && !strings.Contains(member, ".") {
		return funcInfo{kind: staticFunc, methodName: member}
	}

	if funcType.NumIn() == 0 {
		return funcInfo{kind: literalFunc}
	}
	_, method, _ := cutLast(member, ".")
	receiver := funcType.In(0)
	if receiver.Kind() == reflect.Pointer {
		receiver = receiver.Elem()
	}
	return funcInfo{kind: unboundMethod, methodName: method, receiverType: receiver}
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+len(sep):], true
}

// ParseCall validates call against the route table and evaluates its arguments
func ParseCall(table *mvc.RouteTable, call ActionCall) (*MethodCallDescriptor, error) {
	v := reflect.ValueOf(call.method)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, otherExpression()
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return nil, otherExpression()
	}

	info := inspectFunc(fn.Name(), v.Type())
	var controller *mvc.ControllerDescriptor
	var typeName string

	switch info.kind {
	case staticFunc:
		return nil, mverrors.NewExpressionError(invalidExpression+
			"expected instance method call but instead received static method call.").
			WithContext("function", fn.Name())
	case literalFunc:
		return nil, otherExpression().WithContext("function", fn.Name())
	case unboundMethod:
		typeName = info.receiverType.Name()
		controller, _ = table.ControllerFor(info.receiverType)
	case boundMethod:
		typeName = info.typeName
		var err error
		controller, err = boundController(table, info, v.Type())
		if err != nil {
			return nil, err
		}
	}

	if controller == nil {
		return nil, mverrors.NewExpressionError(fmt.Sprintf(
			invalidExpression+"'%s' is not a registered controller.", typeName)).
			WithSuggestion("Register the controller with mvc.NewApplication().AddController(...)")
	}

	action, ok := controller.Action(info.methodName)
	if !ok {
		return nil, mverrors.NewExpressionError(fmt.Sprintf(
			"Method '%s' in '%s' is not a valid controller action.", info.methodName, controller.TypeName()))
	}

	if len(call.args) != len(action.Parameters) {
		return nil, mverrors.NewExpressionError(fmt.Sprintf(
			invalidExpression+"method '%s' expects %d argument(s) but received %d.",
			action.MethodName, len(action.Parameters), len(call.args)))
	}

	descriptor := &MethodCallDescriptor{Controller: controller, Action: action}
	for i, p := range action.Parameters {
		arg, err := evaluateArgument(p, call.args[i])
		if err != nil {
			return nil, err
		}
		descriptor.Arguments = append(descriptor.Arguments, arg)
	}
	return descriptor, nil
}

// boundController finds the controller a bound method value belongs to. The runtime names
// a promoted method after the embedded type, so controllers embedding that type and
// exposing the method with the same signature are matched too.
func boundController(table *mvc.RouteTable, info funcInfo, funcType reflect.Type) (*mvc.ControllerDescriptor, error) {
	var promoted []*mvc.ControllerDescriptor
	for _, c := range table.Controllers() {
		if c.Type.PkgPath() == info.pkgPath && c.Type.Name() == info.typeName {
			return c, nil
		}
		if embeds(c.Type, info.pkgPath, info.typeName, 0) && hasBoundMethod(c.Type, info.methodName, funcType) {
			promoted = append(promoted, c)
		}
	}

	switch len(promoted) {
	case 0:
		return nil, nil
	case 1:
		return promoted[0], nil
	}
	names := make([]string, len(promoted))
	for i, c := range promoted {
		names[i] = c.TypeName()
	}
	return nil, mverrors.NewExpressionError(fmt.Sprintf(
		invalidExpression+"method '%s' of '%s' is promoted to more than one registered controller (%s).",
		info.methodName, info.typeName, strings.Join(names, ", "))).
		WithSuggestion(fmt.Sprintf("Use a method expression such as (*%s).%s", promoted[0].Type.Name(), info.methodName))
}

// embeds reports whether struct t embeds, at any depth, the named type
func embeds(t reflect.Type, pkgPath, name string, depth int) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || depth > 8 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.PkgPath() == pkgPath && ft.Name() == name {
			return true
		}
		if embeds(ft, pkgPath, name, depth+1) {
			return true
		}
	}
	return false
}

// hasBoundMethod reports whether *t has a method whose bound signature is funcType
func hasBoundMethod(t reflect.Type, name string, funcType reflect.Type) bool {
	m, ok := reflect.PointerTo(t).MethodByName(name)
	if !ok {
		return false
	}
	mt := m.Type
	if mt.NumIn()-1 != funcType.NumIn() || mt.NumOut() != funcType.NumOut() || mt.IsVariadic() != funcType.IsVariadic() {
		return false
	}
	for i := 0; i < funcType.NumIn(); i++ {
		if mt.In(i+1) != funcType.In(i) {
			return false
		}
	}
	for i := 0; i < funcType.NumOut(); i++ {
		if mt.Out(i) != funcType.Out(i) {
			return false
		}
	}
	return true
}

func otherExpression() *mverrors.BaseError {
	return mverrors.NewExpressionError(invalidExpression +
		"expected instance method call but instead received other type of expression.")
}

func evaluateArgument(p *mvc.ParameterDescriptor, raw any) (ArgumentDescriptor, error) {
	arg := ArgumentDescriptor{
		Name:        p.Name,
		BindingName: p.BindingName,
		Type:        p.Type,
		Parameter:   p,
	}
	if p.IsContext() {
		arg.Ignored = true
		return arg, nil
	}

	switch a := with.Of(raw).(type) {
	case with.Ignored:
		if a.Type != nil && !a.Type.AssignableTo(p.Type) {
			return arg, mverrors.NewExpressionError(fmt.Sprintf(
				invalidExpression+"parameter '%s' is %s but was marked as ignored %s.", p.Name, p.Type, a.Type))
		}
		arg.Ignored = true
	case with.Explicit:
		value, err := coerce(a.Value, p.Type)
		if err != nil {
			return arg, mverrors.NewExpressionError(fmt.Sprintf(
				invalidExpression+"argument for parameter '%s': %v.", p.Name, err))
		}
		arg.Value = value
	}
	return arg, nil
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}

func isNegative(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() < 0
	case v.CanFloat():
		return v.Float() < 0
	}
	return false
}

// coerce converts an expected argument to the parameter type
func coerce(value any, t reflect.Type) (any, error) {
	if value == nil {
		if !nillable(t) {
			return nil, fmt.Errorf("nil is not a valid %s", t)
		}
		return reflect.Zero(t).Interface(), nil
	}

	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(t):
		return value, nil
	case isNumeric(rv.Kind()) && isNumeric(t.Kind()):
		converted := rv.Convert(t)
		if isNegative(rv) != isNegative(converted) || !converted.Convert(rv.Type()).Equal(rv) {
			return nil, fmt.Errorf("%v cannot be represented as %s", value, t)
		}
		return converted.Interface(), nil
	case rv.Kind() == reflect.String && t.Kind() != reflect.String:
		converted, err := mvc.ConvertString(rv.String(), t)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to %s", rv.String(), t)
		}
		return converted.Interface(), nil
	case t.Kind() == reflect.String && (isNumeric(rv.Kind()) || rv.Kind() == reflect.Bool):
		return reflect.ValueOf(mvc.FormatValue(value)).Convert(t).Interface(), nil
	case rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind():
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("%T is not assignable to %s", value, t)
}
