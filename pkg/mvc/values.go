package mvc

import (
	"fmt"
	"sort"
	"strings"
)

// Reserved route value keys
const (
	ControllerKey = "controller"
	ActionKey     = "action"
	AreaKey       = "area"
)

// RouteValues holds route values. Keys compare case-insensitively.
type RouteValues map[string]any

// NewRouteValues copies a plain map into RouteValues
func NewRouteValues(values map[string]any) RouteValues {
	rv := make(RouteValues, len(values))
	for k, v := range values {
		rv.Set(k, v)
	}
	return rv
}

func (v RouteValues) lookup(key string) (string, bool) {
	if _, ok := v[key]; ok {
		return key, true
	}
	for k := range v {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

// Get returns the value stored under key
func (v RouteValues) Get(key string) (any, bool) {
	k, ok := v.lookup(key)
	if !ok {
		return nil, false
	}
	return v[k], true
}

// Set stores value under key, replacing any entry whose key differs only in case
func (v RouteValues) Set(key string, value any) {
	if k, ok := v.lookup(key); ok && k != key {
		delete(v, k)
	}
	v[key] = value
}

// SetDefault stores value only if key is absent
func (v RouteValues) SetDefault(key string, value any) {
	if !v.Has(key) {
		v[key] = value
	}
}

// Has reports whether key is present
func (v RouteValues) Has(key string) bool {
	_, ok := v.lookup(key)
	return ok
}

// Delete removes key
func (v RouteValues) Delete(key string) {
	if k, ok := v.lookup(key); ok {
		delete(v, k)
	}
}

// String returns the value under key formatted as a string, or "" when absent
func (v RouteValues) String(key string) string {
	value, ok := v.Get(key)
	if !ok || value == nil {
		return ""
	}
	return FormatValue(value)
}

// Clone returns a shallow copy
func (v RouteValues) Clone() RouteValues {
	clone := make(RouteValues, len(v))
	for k, value := range v {
		clone[k] = value
	}
	return clone
}

// Merge copies every entry of other into v, overwriting existing keys
func (v RouteValues) Merge(other RouteValues) RouteValues {
	for k, value := range other {
		v.Set(k, value)
	}
	return v
}

// Keys returns the keys in sorted order
func (v RouteValues) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders the values as {k=v, k=v} with sorted keys
func (v RouteValues) Format() string {
	parts := make([]string, 0, len(v))
	for _, k := range v.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", k, FormatValue(v[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FormatValue converts a route value to its URL string form
func FormatValue(value any) string {
	switch val := value.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
