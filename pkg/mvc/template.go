package mvc

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ivaylokenov/mytested/internal/cache"
	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

// PartKind represents the type of template part
type PartKind int

const (
	LiteralPart PartKind = iota
	ParameterPart
)

// ParameterConstraint is an inline constraint attached to a template parameter
type ParameterConstraint struct {
	Expr string
	RouteConstraint
}

// TemplatePart represents a single literal or parameter inside a path segment
type TemplatePart struct {
	Kind        PartKind
	Text        string // literal text
	Name        string // parameter name
	Optional    bool
	CatchAll    bool
	HasDefault  bool
	Default     string
	Constraints []ParameterConstraint
}

func (p *TemplatePart) accepts(value string) bool {
	for _, c := range p.Constraints {
		if !c.Match(value) {
			return false
		}
	}
	return true
}

func (p *TemplatePart) canBeEmpty() bool {
	return p.Optional || p.CatchAll || p.HasDefault
}

// TemplateSegment is one '/'-delimited segment of a template
type TemplateSegment struct {
	Parts []TemplatePart
}

func (s TemplateSegment) single() (*TemplatePart, bool) {
	if len(s.Parts) != 1 {
		return nil, false
	}
	return &s.Parts[0], true
}

// RouteTemplate is a parsed route template such as "{controller=Home}/{action=Index}/{id:int?}"
type RouteTemplate struct {
	raw      string
	Segments []TemplateSegment
}

var templates = cache.New[string, *RouteTemplate]()

// ParseTemplate parses a route template. Parsed templates are cached and shared.
func ParseTemplate(raw string) (*RouteTemplate, error) {
	return templates.GetOrCompute(raw, func() (*RouteTemplate, error) {
		return parseTemplate(raw)
	})
}

// MustParseTemplate is ParseTemplate that panics on error
func MustParseTemplate(raw string) *RouteTemplate {
	t, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template text with a leading '/'
func (t *RouteTemplate) String() string {
	return "/" + t.raw
}

// Parameters returns every parameter part in declaration order
func (t *RouteTemplate) Parameters() []*TemplatePart {
	var params []*TemplatePart
	for i := range t.Segments {
		for j := range t.Segments[i].Parts {
			if part := &t.Segments[i].Parts[j]; part.Kind == ParameterPart {
				params = append(params, part)
			}
		}
	}
	return params
}

// Parameter returns the parameter with the given name (case-insensitive)
func (t *RouteTemplate) Parameter(name string) (*TemplatePart, bool) {
	for _, p := range t.Parameters() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

func parseTemplate(raw string) (*RouteTemplate, error) {
	text := strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/")
	text = strings.TrimSuffix(text, "/")

	t := &RouteTemplate{raw: text}
	var parts []TemplatePart
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			parts = append(parts, TemplatePart{Kind: LiteralPart, Text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			literal.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			literal.WriteByte('}')
			i += 2
		case c == '{':
			flush()
			content, next, err := readParameter(text, i+1)
			if err != nil {
				return nil, mverrors.NewTemplateError(raw, err.Error())
			}
			part, err := parseParameter(content)
			if err != nil {
				return nil, mverrors.NewTemplateError(raw, err.Error())
			}
			if n := len(parts); n > 0 && parts[n-1].Kind == ParameterPart {
				return nil, mverrors.NewTemplateError(raw,
					"a path segment cannot contain two consecutive parameters")
			}
			parts = append(parts, part)
			i = next
		case c == '}':
			return nil, mverrors.NewTemplateError(raw, "unmatched '}'")
		case c == '?' || c == '#':
			return nil, mverrors.NewTemplateError(raw, fmt.Sprintf("'%c' is not allowed outside of a parameter", c))
		case c == '/':
			flush()
			if len(parts) == 0 {
				return nil, mverrors.NewTemplateError(raw, "empty path segment")
			}
			t.Segments = append(t.Segments, TemplateSegment{Parts: parts})
			parts = nil
			i++
		default:
			literal.WriteByte(c)
			i++
		}
	}
	flush()
	if len(parts) > 0 {
		t.Segments = append(t.Segments, TemplateSegment{Parts: parts})
	}

	if err := t.validate(); err != nil {
		return nil, mverrors.NewTemplateError(raw, err.Error())
	}
	return t, nil
}

func (t *RouteTemplate) validate() error {
	seen := make(map[string]bool)
	for i, seg := range t.Segments {
		for j, part := range seg.Parts {
			if part.Kind != ParameterPart {
				continue
			}
			key := strings.ToLower(part.Name)
			if seen[key] {
				return fmt.Errorf("parameter '%s' appears more than once", part.Name)
			}
			seen[key] = true

			if part.CatchAll && (i != len(t.Segments)-1 || len(seg.Parts) != 1) {
				return fmt.Errorf("catch-all parameter '%s' must be the only part of the last segment", part.Name)
			}
			if part.Optional && len(seg.Parts) > 1 && j != len(seg.Parts)-1 {
				return fmt.Errorf("optional parameter '%s' must be the last part of its segment", part.Name)
			}
		}
	}
	return nil
}

// readParameter reads up to the closing '}', unescaping '{{' and '}}'
func readParameter(text string, start int) (string, int, error) {
	var b strings.Builder
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			return "", 0, fmt.Errorf("unescaped '{' inside a parameter")
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return b.String(), i + 1, nil
		default:
			b.WriteByte(text[i])
		}
	}
	return "", 0, fmt.Errorf("unclosed parameter")
}

func parseParameter(content string) (TemplatePart, error) {
	part := TemplatePart{Kind: ParameterPart}
	s := content

	switch {
	case strings.HasPrefix(s, "**"):
		part.CatchAll = true
		s = s[2:]
	case strings.HasPrefix(s, "*"):
		part.CatchAll = true
		s = s[1:]
	}

	end := strings.IndexAny(s, ":=?")
	if end < 0 {
		end = len(s)
	}
	part.Name = s[:end]
	if part.Name == "" {
		return part, fmt.Errorf("parameter name must not be empty in '{%s}'", content)
	}
	if strings.ContainsAny(part.Name, "/*{}") {
		return part, fmt.Errorf("invalid parameter name '%s'", part.Name)
	}
	s = s[end:]

	for strings.HasPrefix(s, ":") {
		s = s[1:]
		j := strings.IndexAny(s, "(:=?")
		if j < 0 {
			j = len(s)
		}
		name := s[:j]
		s = s[j:]

		arg := ""
		if strings.HasPrefix(s, "(") {
			closing := matchingParen(s)
			if closing < 0 {
				return part, fmt.Errorf("constraint '%s' on '%s' is missing a closing ')'", name, part.Name)
			}
			arg = s[1:closing]
			s = s[closing+1:]
		}

		constraint, err := newNamedConstraint(name, arg)
		if err != nil {
			return part, fmt.Errorf("parameter '%s': %w", part.Name, err)
		}
		expr := name
		if arg != "" {
			expr += "(" + arg + ")"
		}
		part.Constraints = append(part.Constraints, ParameterConstraint{Expr: expr, RouteConstraint: constraint})
	}

	switch {
	case s == "":
	case s == "?":
		part.Optional = true
	case strings.HasPrefix(s, "="):
		if strings.HasSuffix(s, "?") {
			return part, fmt.Errorf("parameter '%s' cannot be optional and have a default value", part.Name)
		}
		part.HasDefault = true
		part.Default = s[1:]
	default:
		return part, fmt.Errorf("unexpected '%s' in parameter '%s'", s, part.Name)
	}

	if part.CatchAll && part.Optional {
		return part, fmt.Errorf("catch-all parameter '%s' cannot be marked optional", part.Name)
	}
	return part, nil
}

// matchingParen returns the index of the ')' closing the '(' at s[0]
func matchingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Match matches a canonical path against the template. The returned values hold every
// matched parameter plus the defaults of parameters the path did not supply.
func (t *RouteTemplate) Match(path string) (RouteValues, bool) {
	segments := SplitPath(path)
	values := make(RouteValues)

	for i, seg := range t.Segments {
		if part, ok := seg.single(); ok && part.CatchAll {
			rest := ""
			if i < len(segments) {
				rest = strings.Join(segments[i:], "/")
			}
			switch {
			case rest != "":
				if !part.accepts(rest) {
					return nil, false
				}
				values[part.Name] = rest
			case part.HasDefault:
				values[part.Name] = part.Default
			}
			return values, true
		}

		if i >= len(segments) {
			for _, remaining := range t.Segments[i:] {
				part, ok := remaining.single()
				if !ok || part.Kind != ParameterPart || !part.canBeEmpty() {
					return nil, false
				}
				if part.HasDefault {
					values[part.Name] = part.Default
				}
			}
			return values, true
		}

		if !matchSegment(seg, segments[i], values) {
			return nil, false
		}
	}

	if len(segments) > len(t.Segments) {
		return nil, false
	}
	return values, true
}

func matchSegment(seg TemplateSegment, text string, values RouteValues) bool {
	if part, ok := seg.single(); ok {
		if part.Kind == LiteralPart {
			return strings.EqualFold(part.Text, text)
		}
		if !part.accepts(text) {
			return false
		}
		values[part.Name] = text
		return true
	}

	// Complex segments match right to left, each literal taking its last occurrence.
	end := len(text)
	var pending *TemplatePart
	for k := len(seg.Parts) - 1; k >= 0; k-- {
		part := &seg.Parts[k]
		if part.Kind == ParameterPart {
			pending = part
			continue
		}

		if pending == nil {
			start := end - len(part.Text)
			if start < 0 || !foldAt(text, start, end, part.Text) {
				return false
			}
			end = start
			continue
		}

		idx := lastIndexFold(text[:end], part.Text)
		if idx < 0 {
			if !pending.Optional {
				return false
			}
			// optional trailing parameter and its separator are absent
			pending = nil
			continue
		}
		if !assignPart(pending, text[idx+len(part.Text):end], values) {
			return false
		}
		end = idx
		pending = nil
	}

	if pending != nil {
		return assignPart(pending, text[:end], values)
	}
	return end == 0
}

func assignPart(part *TemplatePart, value string, values RouteValues) bool {
	if value == "" {
		return part.Optional
	}
	if !part.accepts(value) {
		return false
	}
	values[part.Name] = value
	return true
}

// lastIndexFold returns the start of the last case-insensitive occurrence of lit in s
// that leaves at least one byte after it.
func lastIndexFold(s, lit string) int {
	for i := len(s) - len(lit) - 1; i >= 0; i-- {
		if foldAt(s, i, i+len(lit), lit) {
			return i
		}
	}
	return -1
}

// foldAt reports whether s[start:end] sits on rune boundaries and equals lit ignoring case
func foldAt(s string, start, end int, lit string) bool {
	if start < 0 || end > len(s) {
		return false
	}
	if start < len(s) && !utf8.RuneStart(s[start]) {
		return false
	}
	if end < len(s) && !utf8.RuneStart(s[end]) {
		return false
	}
	return strings.EqualFold(s[start:end], lit)
}

// Bind generates a path from route values. It returns the generated path and the
// names of the parameters that consumed a supplied value.
func (t *RouteTemplate) Bind(values RouteValues) (string, []string, error) {
	type boundSegment struct {
		text      string
		defaulted bool
	}

	var out []boundSegment
	var used []string

segments:
	for _, seg := range t.Segments {
		var b strings.Builder
		defaulted := true
		hasParameter := false

		for k := range seg.Parts {
			part := &seg.Parts[k]
			if part.Kind == LiteralPart {
				b.WriteString(url.PathEscape(part.Text))
				defaulted = false
				continue
			}
			hasParameter = true

			var text string
			value, ok := values.Get(part.Name)
			if ok && FormatValue(value) != "" {
				text = FormatValue(value)
				used = append(used, part.Name)
				if !part.HasDefault || !strings.EqualFold(text, part.Default) {
					defaulted = false
				}
			} else if part.HasDefault {
				text = part.Default
			} else if part.Optional || part.CatchAll {
				if b.Len() == 0 {
					break segments
				}
				continue
			} else {
				return "", nil, mverrors.NewGenerationError(
					fmt.Sprintf("missing value for route parameter '%s' of template '%s'", part.Name, t))
			}

			if !part.accepts(text) {
				return "", nil, mverrors.NewGenerationError(
					fmt.Sprintf("value '%s' for route parameter '%s' does not satisfy its constraints", text, part.Name))
			}

			if part.CatchAll {
				pieces := strings.Split(text, "/")
				for i, piece := range pieces {
					pieces[i] = url.PathEscape(piece)
				}
				b.WriteString(strings.Join(pieces, "/"))
			} else {
				b.WriteString(url.PathEscape(text))
			}
		}

		out = append(out, boundSegment{text: b.String(), defaulted: defaulted && hasParameter})
	}

	for len(out) > 0 && out[len(out)-1].defaulted {
		out = out[:len(out)-1]
	}

	texts := make([]string, len(out))
	for i, seg := range out {
		texts[i] = seg.text
	}
	return "/" + strings.Join(texts, "/"), used, nil
}

// SplitPath splits a path into decoded, non-empty segments
func SplitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if decoded, err := url.PathUnescape(seg); err == nil {
			seg = decoded
		}
		segments = append(segments, seg)
	}
	return segments
}

// CanonicalPath collapses repeated slashes, drops the trailing slash and ensures a leading one
func CanonicalPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return "/" + strings.Join(segments, "/")
}
