// Package with marks the arguments of an expected action call.
//
// An argument is either Explicit, a value the resolved route must bind, or Ignored,
// a parameter the assertion leaves unconstrained:
//
//	routing.Call((*BooksController).Details, with.No[int]())
package with

import (
	"fmt"
	"reflect"
)

// Argument is Explicit or Ignored. The interface is sealed.
type Argument interface {
	fmt.Stringer
	argument()
}

// Explicit is an argument the resolved route must bind to Value
type Explicit struct {
	Value any
}

func (Explicit) argument() {}

func (e Explicit) String() string {
	return fmt.Sprintf("%v", e.Value)
}

// Ignored is an argument of type Type that the assertion does not check
type Ignored struct {
	Type reflect.Type
}

func (Ignored) argument() {}

func (i Ignored) String() string {
	return fmt.Sprintf("with.No[%s]()", i.Type)
}

// No marks a parameter of type T as not checked
func No[T any]() Argument {
	return Ignored{Type: reflect.TypeFor[T]()}
}

// Any is an alias of No
func Any[T any]() Argument {
	return No[T]()
}

// Value wraps an explicit value. Plain values passed to routing.Call are treated the same way.
func Value(v any) Argument {
	return Explicit{Value: v}
}

// Of converts a raw call argument to an Argument
func Of(v any) Argument {
	if arg, ok := v.(Argument); ok {
		return arg
	}
	return Explicit{Value: v}
}
