package mvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinConstraints(t *testing.T) {
	tests := []struct {
		expr   string
		accept []string
		reject []string
	}{
		{expr: "int", accept: []string{"5", "-12"}, reject: []string{"abc", "5.5", "9999999999"}},
		{expr: "long", accept: []string{"9999999999"}, reject: []string{"x"}},
		{expr: "double", accept: []string{"1.5", "3"}, reject: []string{"one"}},
		{expr: "bool", accept: []string{"true", "False"}, reject: []string{"yes"}},
		{expr: "guid", accept: []string{"7c9e6679-7425-40de-944b-e07fc1f90ae7"}, reject: []string{"7c9e6679"}},
		{expr: "uuid", accept: []string{"7c9e6679-7425-40de-944b-e07fc1f90ae7"}, reject: []string{"nope"}},
		{expr: "datetime", accept: []string{"2024-02-29", "2024-02-29T10:00:00Z"}, reject: []string{"2024-13-01"}},
		{expr: "alpha", accept: []string{"abcXYZ"}, reject: []string{"abc1", ""}},
		{expr: "required", accept: []string{"x"}, reject: []string{""}},
		{expr: "min(10)", accept: []string{"10", "11"}, reject: []string{"9", "x"}},
		{expr: "max(10)", accept: []string{"10", "-1"}, reject: []string{"11"}},
		{expr: "range(1,3)", accept: []string{"1", "3"}, reject: []string{"0", "4"}},
		{expr: "length(3)", accept: []string{"abc"}, reject: []string{"ab"}},
		{expr: "length(2,3)", accept: []string{"ab", "abc"}, reject: []string{"a", "abcd"}},
		{expr: "minlength(2)", accept: []string{"ab"}, reject: []string{"a"}},
		{expr: "maxlength(2)", accept: []string{"ab"}, reject: []string{"abc"}},
		{expr: `regex(^\d{3}$)`, accept: []string{"123"}, reject: []string{"12", "1234"}},
		{expr: "regex(ab)", accept: []string{"xaby", "AB"}, reject: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			c, err := NewConstraint(tt.expr)
			require.NoError(t, err)
			for _, v := range tt.accept {
				assert.True(t, c.Match(v), "expected %q to be accepted", v)
			}
			for _, v := range tt.reject {
				assert.False(t, c.Match(v), "expected %q to be rejected", v)
			}
		})
	}
}

func TestNewConstraint_Errors(t *testing.T) {
	tests := []struct {
		expr     string
		contains string
	}{
		{expr: "nope", contains: "unknown route constraint 'nope'"},
		{expr: "int(5)", contains: "takes no argument"},
		{expr: "min(x)", contains: "requires an integer argument"},
		{expr: "range(5)", contains: "requires two arguments"},
		{expr: "range(5,1)", contains: "greater than max"},
		{expr: "length(-1)", contains: "non-negative"},
		{expr: "regex()", contains: "requires a pattern"},
		{expr: "regex([)", contains: "invalid pattern"},
		{expr: "min(1", contains: "missing a closing ')'"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := NewConstraint(tt.expr)
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}

func TestNewInlineConstraint(t *testing.T) {
	named, err := NewInlineConstraint("range(1,5)")
	require.NoError(t, err)
	assert.True(t, named.Match("3"))

	pattern, err := NewInlineConstraint(`\d+`)
	require.NoError(t, err)
	assert.True(t, pattern.Match("123"))
	assert.False(t, pattern.Match("12a"), "inline patterns must match the whole value")
}
