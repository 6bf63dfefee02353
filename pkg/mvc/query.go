package mvc

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// QueryMap gives typed access to query string values. Keys compare case-insensitively,
// the way model binding looks them up.
type QueryMap struct {
	values url.Values
}

// NewQueryMap wraps url.Values
func NewQueryMap(values url.Values) QueryMap {
	return QueryMap{values: values}
}

func (q QueryMap) key(name string) (string, bool) {
	if _, ok := q.values[name]; ok {
		return name, true
	}
	for k := range q.values {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// Get returns the first value for key, or "" if absent
func (q QueryMap) Get(key string) string {
	if k, ok := q.key(key); ok {
		return q.values.Get(k)
	}
	return ""
}

// Lookup returns the first value for key and whether the key was present
func (q QueryMap) Lookup(key string) (string, bool) {
	k, ok := q.key(key)
	if !ok {
		return "", false
	}
	return q.values.Get(k), true
}

// GetDefault returns the first value for key, or defaultValue if absent or empty
func (q QueryMap) GetDefault(key, defaultValue string) string {
	if value := q.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntDefault returns the first value for key as an integer, or defaultValue
func (q QueryMap) GetIntDefault(key string, defaultValue int) int {
	if i, err := strconv.Atoi(q.Get(key)); err == nil {
		return i
	}
	return defaultValue
}

// GetAll returns all values for key
func (q QueryMap) GetAll(key string) []string {
	if k, ok := q.key(key); ok {
		return q.values[k]
	}
	return nil
}

// Has reports whether key is present
func (q QueryMap) Has(key string) bool {
	_, ok := q.key(key)
	return ok
}

// Keys returns the query keys in sorted order
func (q QueryMap) Keys() []string {
	keys := make([]string, 0, len(q.values))
	for key := range q.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct keys
func (q QueryMap) Len() int {
	return len(q.values)
}
