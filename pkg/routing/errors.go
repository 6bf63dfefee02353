package routing

import "fmt"

// RouteAssertionError describes a failed route assertion
type RouteAssertionError struct {
	Prefix   string // e.g. "Expected route '/Home/Index'"
	Expected string
	Actual   string
}

func (e *RouteAssertionError) Error() string {
	return fmt.Sprintf("%s to %s but %s.", e.Prefix, e.Expected, e.Actual)
}
