// Package routing asserts how requests and route values resolve against an mvc.RouteTable.
//
//	routing.ShouldMap(t, table, "/Books/Details/5").
//		To(routing.Call((*BooksController).Details, 5))
package routing

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

// TestingT is the subset of *testing.T the builder reports failures through
type TestingT interface {
	Errorf(format string, args ...any)
	FailNow()
}

type tHelper interface {
	Helper()
}

// RouteTestBuilder chains assertions about one route. Resolution runs at most once, on the
// first assertion that needs it. After the first failure every further assertion is a no-op.
type RouteTestBuilder struct {
	t        TestingT
	table    *mvc.RouteTable
	request  *mvc.Request
	values   mvc.RouteValues
	prefix   string
	resolved *mvc.ResolvedRouteContext
	err      error
}

// ShouldMap starts assertions for a route target (see NewRequest for accepted targets)
func ShouldMap(t TestingT, table *mvc.RouteTable, target any) *RouteTestBuilder {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	b := &RouteTestBuilder{t: t, table: table, prefix: "Expected route"}
	req, err := NewRequest(target)
	if err != nil {
		b.fatal(err)
		return b
	}
	b.request = req
	b.prefix = describeRequest(req)
	return b
}

// ShouldMapValues starts assertions for explicit route values. They are resolved by
// generating a URL and resolving a GET request for it.
func ShouldMapValues(t TestingT, table *mvc.RouteTable, values map[string]any) *RouteTestBuilder {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	rv := mvc.NewRouteValues(values)
	return &RouteTestBuilder{
		t:      t,
		table:  table,
		values: rv,
		prefix: "Expected route values " + rv.Format(),
	}
}

func describeRequest(req *mvc.Request) string {
	if req.Method == http.MethodGet {
		return fmt.Sprintf("Expected route '%s'", req.Target())
	}
	return fmt.Sprintf("Expected route '%s %s'", req.Method, req.Target())
}

// Err returns the first failure of the chain, if any
func (b *RouteTestBuilder) Err() error {
	return b.err
}

// AndAlso continues the chain
func (b *RouteTestBuilder) AndAlso() *RouteTestBuilder {
	return b
}

// Resolved returns the resolution result, resolving if needed
func (b *RouteTestBuilder) Resolved() *mvc.ResolvedRouteContext {
	if b.request == nil && b.values == nil {
		return nil
	}
	return b.resolve()
}

func (b *RouteTestBuilder) resolve() *mvc.ResolvedRouteContext {
	if b.resolved == nil {
		if b.values != nil {
			b.resolved = b.table.ResolveValues(b.values)
		} else {
			b.resolved = b.table.Resolve(b.request)
		}
	}
	return b.resolved
}

func (b *RouteTestBuilder) helper() {
	if h, ok := b.t.(tHelper); ok {
		h.Helper()
	}
}

func (b *RouteTestBuilder) fail(expected, actual string) {
	b.helper()
	b.report(&RouteAssertionError{Prefix: b.prefix, Expected: expected, Actual: actual})
}

func (b *RouteTestBuilder) fatal(err error) {
	b.helper()
	b.report(err)
}

func (b *RouteTestBuilder) report(err error) {
	b.helper()
	b.err = err
	b.t.Errorf("%s", err.Error())
	b.t.FailNow()
}

func (b *RouteTestBuilder) requireResolved(expected string) (*mvc.ResolvedRouteContext, bool) {
	ctx := b.resolve()
	if !ctx.IsResolved {
		b.fail(expected, fmt.Sprintf("it could not be resolved: '%s'", ctx.UnresolvedError))
		return nil, false
	}
	return ctx, true
}

// ToController asserts the routing name of the resolved controller
func (b *RouteTestBuilder) ToController(name string) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	expected := fmt.Sprintf("match %s controller", name)
	ctx, ok := b.requireResolved(expected)
	if ok && !equalFold(ctx.ControllerName, name) {
		b.fail(expected, fmt.Sprintf("instead matched %s", ctx.ControllerName))
	}
	return b
}

// ToControllerType asserts the Go type of the resolved controller (T or *T)
func (b *RouteTestBuilder) ToControllerType(typ reflect.Type) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	expected := fmt.Sprintf("match %s", typ.Name())
	ctx, ok := b.requireResolved(expected)
	if ok && ctx.ControllerType != typ {
		b.fail(expected, fmt.Sprintf("instead matched %s", ctx.ControllerType.Name()))
	}
	return b
}

// ToAction asserts the routing name of the resolved action
func (b *RouteTestBuilder) ToAction(name string) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	expected := fmt.Sprintf("match %s action", name)
	ctx, ok := b.requireResolved(expected)
	if ok && !equalFold(ctx.Action, name) {
		b.fail(expected, fmt.Sprintf("instead matched %s action", ctx.Action))
	}
	return b
}

// To asserts that the route resolves to the expected call: same controller type, same
// action, and every non-ignored argument bound to an equal value. Unlike ToRouteValues the
// number of values is not checked.
func (b *RouteTestBuilder) To(call ActionCall) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()

	descriptor, err := ParseCall(b.table, call)
	if err != nil {
		b.fatal(err)
		return b
	}
	projection := Project(descriptor)

	ctx, ok := b.requireResolved(fmt.Sprintf("match %s action in %s controller", projection.Action, projection.Controller))
	if !ok {
		return b
	}

	if expectedType := descriptor.ControllerType(); ctx.ControllerType != expectedType {
		b.fail(fmt.Sprintf("match %s", expectedType.Name()), fmt.Sprintf("instead matched %s", ctx.ControllerType.Name()))
		return b
	}
	if !equalFold(ctx.Action, projection.Action) {
		b.fail(fmt.Sprintf("match %s action", projection.Action), fmt.Sprintf("instead matched %s action", ctx.Action))
		return b
	}

	for _, key := range projection.Arguments.Keys() {
		b.checkRouteValue(ctx, key, projection.Arguments[key], true)
		if b.err != nil {
			break
		}
	}
	return b
}

// ToRouteValue asserts that key is bound, and when a value is given, that it is equal
func (b *RouteTestBuilder) ToRouteValue(key string, value ...any) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	ctx, ok := b.requireResolved(fmt.Sprintf("contain route value with '%s' key", key))
	if ok {
		var expected any
		if len(value) > 0 {
			expected = value[0]
		}
		b.checkRouteValue(ctx, key, expected, len(value) > 0)
	}
	return b
}

func (b *RouteTestBuilder) checkRouteValue(ctx *mvc.ResolvedRouteContext, key string, expected any, compare bool) {
	b.helper()
	actual, found := ctx.ActionArguments.Get(key)
	if !found {
		actual, found = ctx.RouteData.Values.Get(key)
	}
	if !found {
		b.fail(fmt.Sprintf("contain route value with '%s' key", key), "such was not found")
		return
	}
	if compare && !valuesEqual(key, expected, actual) {
		actualText := fmt.Sprintf("instead found %s", show(actual))
		if d := diff(expected, actual); d != "" {
			actualText += " (-expected +actual):\n" + d
		}
		b.fail(fmt.Sprintf("contain route value with '%s' key and value %s", key, show(expected)), actualText)
	}
}

// ToRouteValues asserts the exact number of route values, then each key and value
func (b *RouteTestBuilder) ToRouteValues(values map[string]any) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	expected := mvc.NewRouteValues(values)
	ctx, ok := b.requireResolved(fmt.Sprintf("contain %s", countOf(len(expected), "route value")))
	if !ok {
		return b
	}

	actualCount := len(unionKeys(ctx.RouteData.Values, ctx.ActionArguments))
	if actualCount != len(expected) {
		b.fail(fmt.Sprintf("contain %s", countOf(len(expected), "route value")), fmt.Sprintf("in fact found %d", actualCount))
		return b
	}
	for _, key := range expected.Keys() {
		b.checkRouteValue(ctx, key, expected[key], true)
		if b.err != nil {
			break
		}
	}
	return b
}

// ToDataToken asserts that a data token is present, and when a value is given, that it is equal
func (b *RouteTestBuilder) ToDataToken(key string, value ...any) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	ctx, ok := b.requireResolved(fmt.Sprintf("contain data token with '%s' key", key))
	if !ok {
		return b
	}
	actual, found := ctx.RouteData.DataTokens.Get(key)
	switch {
	case !found:
		b.fail(fmt.Sprintf("contain data token with '%s' key", key), "such was not found")
	case len(value) > 0 && !valuesEqual(key, value[0], actual):
		b.fail(fmt.Sprintf("contain data token with '%s' key and value %s", key, show(value[0])),
			fmt.Sprintf("instead found %s", show(actual)))
	}
	return b
}

// ToDataTokens asserts the exact number of data tokens, then each key and value
func (b *RouteTestBuilder) ToDataTokens(tokens map[string]any) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	expected := mvc.NewRouteValues(tokens)
	ctx, ok := b.requireResolved(fmt.Sprintf("contain %s", countOf(len(expected), "data token")))
	if !ok {
		return b
	}
	if n := len(ctx.RouteData.DataTokens); n != len(expected) {
		b.fail(fmt.Sprintf("contain %s", countOf(len(expected), "data token")), fmt.Sprintf("in fact found %d", n))
		return b
	}
	for _, key := range expected.Keys() {
		b.ToDataToken(key, expected[key])
		if b.err != nil {
			break
		}
	}
	return b
}

// ToNonExistingRoute asserts that resolution fails
func (b *RouteTestBuilder) ToNonExistingRoute() *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	if b.resolve().IsResolved {
		b.fail("be non-existing", "in fact it was resolved successfully")
	}
	return b
}

// ToMethodNotAllowed asserts that the path matches but not for the request's method
func (b *RouteTestBuilder) ToMethodNotAllowed() *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	ctx := b.resolve()
	method := http.MethodGet
	if ctx.Request != nil {
		method = ctx.Request.Method
	}
	expected := fmt.Sprintf("not allow the %s method", method)
	switch {
	case ctx.IsResolved:
		b.fail(expected, "in fact it was resolved successfully")
	case !ctx.MethodIsNotAllowed:
		b.fail(expected, fmt.Sprintf("it could not be resolved: '%s'", ctx.UnresolvedError))
	}
	return b
}

// ToValidModelState asserts that binding and validation produced no errors
func (b *RouteTestBuilder) ToValidModelState() *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	ctx, ok := b.requireResolved("have valid model state")
	if ok && !ctx.ModelState.IsValid() {
		b.fail("have valid model state",
			fmt.Sprintf("it had %s: %s", countOf(ctx.ModelState.ErrorCount(), "error"),
				strings.TrimSuffix(ctx.ModelState.String(), ".")))
	}
	return b
}

// ToInvalidModelState asserts that binding or validation produced errors, optionally how many
func (b *RouteTestBuilder) ToInvalidModelState(count ...int) *RouteTestBuilder {
	if b.err != nil {
		return b
	}
	b.helper()
	ctx, ok := b.requireResolved("have invalid model state")
	if !ok {
		return b
	}
	switch n := ctx.ModelState.ErrorCount(); {
	case n == 0:
		b.fail("have invalid model state", "it was valid")
	case len(count) > 0 && n != count[0]:
		b.fail(fmt.Sprintf("have invalid model state with %s", countOf(count[0], "error")), fmt.Sprintf("in fact it had %d", n))
	}
	return b
}

func countOf(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func unionKeys(sets ...mvc.RouteValues) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, set := range sets {
		for k := range set {
			lower := strings.ToLower(k)
			if !seen[lower] {
				seen[lower] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
