package mvc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// RouteConstraint decides whether a route value is acceptable for a parameter
type RouteConstraint interface {
	Match(value string) bool
}

// ConstraintFunc adapts a function to RouteConstraint
type ConstraintFunc func(value string) bool

// Match implements RouteConstraint
func (f ConstraintFunc) Match(value string) bool { return f(value) }

// ConstraintFactory builds a constraint from its argument text (empty when none was given)
type ConstraintFactory func(arg string) (RouteConstraint, error)

// BuiltinConstraints maps constraint names to their factories
var BuiltinConstraints = map[string]ConstraintFactory{
	"int":       noArg("int", parses(func(s string) error { _, err := strconv.ParseInt(s, 10, 32); return err })),
	"long":      noArg("long", parses(func(s string) error { _, err := strconv.ParseInt(s, 10, 64); return err })),
	"float":     noArg("float", parses(func(s string) error { _, err := strconv.ParseFloat(s, 32); return err })),
	"double":    noArg("double", parses(func(s string) error { _, err := strconv.ParseFloat(s, 64); return err })),
	"decimal":   noArg("decimal", parses(func(s string) error { _, err := strconv.ParseFloat(s, 64); return err })),
	"bool":      noArg("bool", parses(func(s string) error { _, err := strconv.ParseBool(s); return err })),
	"guid":      noArg("guid", parses(func(s string) error { _, err := uuid.Parse(s); return err })),
	"datetime":  noArg("datetime", parses(func(s string) error { _, err := ParseDateTime(s); return err })),
	"alpha":     noArg("alpha", alpha),
	"required":  noArg("required", ConstraintFunc(func(s string) bool { return s != "" })),
	"min":       intBound("min", func(v, n int64) bool { return v >= n }),
	"max":       intBound("max", func(v, n int64) bool { return v <= n }),
	"range":     rangeConstraint,
	"length":    lengthConstraint,
	"minlength": lengthBound("minlength", func(l, n int) bool { return l >= n }),
	"maxlength": lengthBound("maxlength", func(l, n int) bool { return l <= n }),
	"regex":     regexConstraint,
}

// ConstraintAliases maps alternative spellings to built-in constraint names
var ConstraintAliases = map[string]string{
	"uuid":    "guid",
	"integer": "int",
	"float64": "double",
	"float32": "float",
	"int64":   "long",
	"boolean": "bool",
}

// NewConstraint resolves "name" or "name(arg)" into a constraint
func NewConstraint(expr string) (RouteConstraint, error) {
	name, arg, err := splitConstraint(expr)
	if err != nil {
		return nil, err
	}
	return newNamedConstraint(name, arg)
}

func newNamedConstraint(name, arg string) (RouteConstraint, error) {
	key := strings.ToLower(name)
	if alias, ok := ConstraintAliases[key]; ok {
		key = alias
	}
	factory, ok := BuiltinConstraints[key]
	if !ok {
		return nil, fmt.Errorf("unknown route constraint '%s'", name)
	}
	return factory(arg)
}

// NewInlineConstraint resolves a constraint given in MapRoute's constraints map.
// Known constraint expressions are used as such, anything else is a regular expression.
func NewInlineConstraint(expr string) (RouteConstraint, error) {
	if name, arg, err := splitConstraint(expr); err == nil {
		key := strings.ToLower(name)
		if alias, ok := ConstraintAliases[key]; ok {
			key = alias
		}
		if _, ok := BuiltinConstraints[key]; ok {
			return newNamedConstraint(name, arg)
		}
	}
	return compileRegex("^(?:" + expr + ")$")
}

func splitConstraint(expr string) (string, string, error) {
	open := strings.IndexByte(expr, '(')
	if open < 0 {
		return expr, "", nil
	}
	if !strings.HasSuffix(expr, ")") {
		return "", "", fmt.Errorf("constraint '%s' is missing a closing ')'", expr)
	}
	return expr[:open], expr[open+1 : len(expr)-1], nil
}

func noArg(name string, c RouteConstraint) ConstraintFactory {
	return func(arg string) (RouteConstraint, error) {
		if arg != "" {
			return nil, fmt.Errorf("constraint '%s' takes no argument", name)
		}
		return c, nil
	}
}

func parses(parse func(string) error) RouteConstraint {
	return ConstraintFunc(func(s string) bool { return parse(s) == nil })
}

var alpha = ConstraintFunc(func(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
})

func intBound(name string, ok func(v, n int64) bool) ConstraintFactory {
	return func(arg string) (RouteConstraint, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("constraint '%s' requires an integer argument, got '%s'", name, arg)
		}
		return ConstraintFunc(func(s string) bool {
			v, err := strconv.ParseInt(s, 10, 64)
			return err == nil && ok(v, n)
		}), nil
	}
}

func parsePair(name, arg string) (int64, int64, error) {
	lo, hi, found := strings.Cut(arg, ",")
	if !found {
		return 0, 0, fmt.Errorf("constraint '%s' requires two arguments, got '%s'", name, arg)
	}
	a, errA := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	b, errB := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if errA != nil || errB != nil {
		return 0, 0, fmt.Errorf("constraint '%s' requires integer arguments, got '%s'", name, arg)
	}
	if a > b {
		return 0, 0, fmt.Errorf("constraint '%s' has min %d greater than max %d", name, a, b)
	}
	return a, b, nil
}

func rangeConstraint(arg string) (RouteConstraint, error) {
	lo, hi, err := parsePair("range", arg)
	if err != nil {
		return nil, err
	}
	return ConstraintFunc(func(s string) bool {
		v, err := strconv.ParseInt(s, 10, 64)
		return err == nil && v >= lo && v <= hi
	}), nil
}

func lengthConstraint(arg string) (RouteConstraint, error) {
	if strings.Contains(arg, ",") {
		lo, hi, err := parsePair("length", arg)
		if err != nil {
			return nil, err
		}
		return ConstraintFunc(func(s string) bool {
			l := int64(utf8.RuneCountInString(s))
			return l >= lo && l <= hi
		}), nil
	}
	return lengthBound("length", func(l, n int) bool { return l == n })(arg)
}

func lengthBound(name string, ok func(l, n int) bool) ConstraintFactory {
	return func(arg string) (RouteConstraint, error) {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("constraint '%s' requires a non-negative integer argument, got '%s'", name, arg)
		}
		return ConstraintFunc(func(s string) bool { return ok(utf8.RuneCountInString(s), n) }), nil
	}
}

func regexConstraint(arg string) (RouteConstraint, error) {
	if arg == "" {
		return nil, fmt.Errorf("constraint 'regex' requires a pattern")
	}
	return compileRegex(arg)
}

func compileRegex(pattern string) (RouteConstraint, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("constraint 'regex' has an invalid pattern: %w", err)
	}
	return ConstraintFunc(re.MatchString), nil
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDateTime parses the date/time forms accepted by the datetime constraint
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("'%s' is not a valid date/time", s)
}
