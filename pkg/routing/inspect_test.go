package routing

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct{}

func (*sample) Do(int) {}

func TestInspectFunc(t *testing.T) {
	methodType := reflect.TypeOf((*sample).Do)

	tests := []struct {
		name     string
		fullName string
		funcType reflect.Type
		want     funcInfo
	}{
		{
			name:     "pointer method expression",
			fullName: "example.com/app/controllers.(*Books).Details",
			funcType: methodType,
			want:     funcInfo{kind: unboundMethod, methodName: "Details", receiverType: reflect.TypeFor[sample]()},
		},
		{
			name:     "value method expression",
			fullName: "example.com/app/controllers.Books.Details",
			funcType: methodType,
			want:     funcInfo{kind: unboundMethod, methodName: "Details", receiverType: reflect.TypeFor[sample]()},
		},
		{
			name:     "bound pointer method",
			fullName: "example.com/app/controllers.(*Books).Details-fm",
			funcType: reflect.TypeFor[func(int)](),
			want:     funcInfo{kind: boundMethod, methodName: "Details", pkgPath: "example.com/app/controllers", typeName: "Books"},
		},
		{
			name:     "bound value method",
			fullName: "main.Books.Details-fm",
			funcType: reflect.TypeFor[func(int)](),
			want:     funcInfo{kind: boundMethod, methodName: "Details", pkgPath: "main", typeName: "Books"},
		},
		{
			name:     "bound method on generic type",
			fullName: "example.com/app.(*Repo[...]).Find-fm",
			funcType: reflect.TypeFor[func(int)](),
			want:     funcInfo{kind: boundMethod, methodName: "Find", pkgPath: "example.com/app", typeName: "Repo"},
		},
		{
			name:     "bound method in package with dotted path",
			fullName: "example.com/shop.v2.(*Home).Index-fm",
			funcType: reflect.TypeFor[func()](),
			want:     funcInfo{kind: boundMethod, methodName: "Index", pkgPath: "example.com/shop.v2", typeName: "Home"},
		},
		{
			name:     "bound method in package with escaped dot",
			fullName: "example.com/pkg/shop%2ev2.(*Home).Index-fm",
			funcType: reflect.TypeFor[func()](),
			want:     funcInfo{kind: boundMethod, methodName: "Index", pkgPath: "example.com/pkg/shop.v2", typeName: "Home"},
		},
		{
			name:     "package function",
			fullName: "example.com/app/controllers.Helper",
			funcType: reflect.TypeFor[func()](),
			want:     funcInfo{kind: staticFunc, methodName: "Helper"},
		},
		{
			name:     "generic package function",
			fullName: "example.com/app.Map[...]",
			funcType: reflect.TypeFor[func()](),
			want:     funcInfo{kind: staticFunc, methodName: "Map"},
		},
		{
			name:     "function literal",
			fullName: "example.com/app.TestSomething.func1",
			funcType: reflect.TypeFor[func()](),
			want:     funcInfo{kind: literalFunc},
		},
		{
			name:     "nested function literal",
			fullName: "example.com/app.init.func2.3",
			funcType: reflect.TypeFor[func()](),
			want:     funcInfo{kind: literalFunc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inspectFunc(tt.fullName, tt.funcType))
		})
	}
}

func TestValuesEqual(t *testing.T) {
	type point struct{ x, y int }

	tests := []struct {
		name     string
		key      string
		expected any
		actual   any
		want     bool
	}{
		{name: "same int", key: "id", expected: 5, actual: 5, want: true},
		{name: "int kinds", key: "id", expected: int64(5), actual: 5, want: true},
		{name: "int and float", key: "id", expected: 5, actual: 5.0, want: true},
		{name: "different numbers", key: "id", expected: 5, actual: 6, want: false},
		{name: "string form", key: "id", expected: "5", actual: 5, want: true},
		{name: "reserved keys ignore case", key: "Controller", expected: "home", actual: "Home", want: true},
		{name: "other keys keep case", key: "slug", expected: "home", actual: "Home", want: false},
		{name: "slices", key: "tags", expected: []string{"a"}, actual: []string{"a"}, want: true},
		{name: "unexported fields", key: "p", expected: point{1, 2}, actual: point{1, 2}, want: true},
		{name: "unexported fields differ", key: "p", expected: point{1, 2}, actual: point{2, 1}, want: false},
		{name: "nil", key: "p", expected: nil, actual: nil, want: true},
		{name: "nil and value", key: "p", expected: nil, actual: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.key, tt.expected, tt.actual))
		})
	}
}

func TestShow(t *testing.T) {
	type model struct{ Name string }

	assert.Equal(t, "<nil>", show(nil))
	assert.Equal(t, "'5'", show(5))
	assert.Equal(t, "'{Name:x}'", show(model{Name: "x"}))
	assert.Equal(t, "'{Name:x}'", show(&model{Name: "x"}))
	assert.Empty(t, diff(5, 6))
	assert.NotEmpty(t, diff(model{Name: "x"}, model{Name: "y"}))
}
