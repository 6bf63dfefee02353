package routing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/ivaylokenov/mytested/pkg/mvc"
)

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

func isReservedKey(key string) bool {
	return equalFold(key, mvc.ControllerKey) || equalFold(key, mvc.ActionKey) || equalFold(key, mvc.AreaKey)
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// valuesEqual compares an expected route value with an actual one. When either side is a
// string both are compared in their string form; controller, action and area compare
// case-insensitively. Numbers compare by value across numeric types. Anything else is
// compared structurally.
func valuesEqual(key string, expected, actual any) bool {
	_, expectedString := expected.(string)
	_, actualString := actual.(string)
	if expectedString || actualString {
		e, a := mvc.FormatValue(expected), mvc.FormatValue(actual)
		if isReservedKey(key) {
			return equalFold(e, a)
		}
		return e == a
	}

	if eq, ok := numbersEqual(expected, actual); ok {
		return eq
	}
	return cmp.Equal(expected, actual, exportAll)
}

func numbersEqual(a, b any) (bool, bool) {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return false, false
	}
	ka, kb := va.Kind(), vb.Kind()
	if !isNumeric(ka) || !isNumeric(kb) {
		return false, false
	}
	if isFloat(ka) || isFloat(kb) {
		return toFloat(va) == toFloat(vb), true
	}
	return fmt.Sprint(a) == fmt.Sprint(b), true
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// show formats a value for failure messages
func show(v any) string {
	if v == nil {
		return "<nil>"
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		return fmt.Sprintf("'%+v'", rv.Interface())
	}
	return fmt.Sprintf("'%s'", mvc.FormatValue(v))
}

// diff renders a structural diff for non-scalar values, or "" when it would add nothing
func diff(expected, actual any) string {
	rv := reflect.ValueOf(expected)
	if !rv.IsValid() {
		return ""
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Pointer:
		return cmp.Diff(expected, actual, exportAll)
	}
	return ""
}
