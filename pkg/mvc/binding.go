package mvc

import (
	"encoding"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

// ModelState collects binding and validation errors keyed by model name
type ModelState struct {
	errors map[string][]string
	causes map[string][]error
	keys   []string
}

// NewModelState creates an empty, valid model state
func NewModelState() *ModelState {
	return &ModelState{errors: make(map[string][]string), causes: make(map[string][]error)}
}

// AddError records an error for key
func (m *ModelState) AddError(key, message string) {
	if _, ok := m.errors[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.errors[key] = append(m.errors[key], message)
}

// AddBindingError records a conversion failure for key along with what caused it
func (m *ModelState) AddBindingError(key, message string, cause error) {
	m.AddError(key, message)
	if m.causes == nil {
		m.causes = make(map[string][]error)
	}
	m.causes[key] = append(m.causes[key], mverrors.WrapBindingError(key, cause))
}

// Err returns the binding failures recorded for key, or nil. Validation errors carry no cause.
func (m *ModelState) Err(key string) error {
	if m == nil {
		return nil
	}
	return errors.Join(m.causes[key]...)
}

// IsValid reports whether no errors were recorded
func (m *ModelState) IsValid() bool {
	return m == nil || len(m.keys) == 0
}

// ErrorCount returns the total number of recorded errors
func (m *ModelState) ErrorCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, errs := range m.errors {
		n += len(errs)
	}
	return n
}

// Errors returns the errors recorded for key
func (m *ModelState) Errors(key string) []string {
	if m == nil {
		return nil
	}
	return m.errors[key]
}

// Keys returns the keys with errors in the order they were first recorded
func (m *ModelState) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// String renders every error as "key: message; ..."
func (m *ModelState) String() string {
	if m.IsValid() {
		return "valid"
	}
	var parts []string
	for _, key := range m.keys {
		for _, msg := range m.errors[key] {
			parts = append(parts, key+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Binder converts route values, query string and body into action arguments
type Binder struct {
	validate *validator.Validate
}

// NewBinder creates a binder validating structs with v
func NewBinder(v *validator.Validate) *Binder {
	return &Binder{validate: v}
}

// Bind produces the arguments for action keyed by binding name. Parameters with no
// source value are left out. Failures are recorded in the returned model state.
func (b *Binder) Bind(action *ActionDescriptor, values RouteValues, req *Request) (RouteValues, *ModelState) {
	args := make(RouteValues)
	state := NewModelState()
	query := req.QueryMap()

	for _, p := range action.BindableParameters() {
		switch {
		case p.Source == BindingBody:
			b.bindBody(p, req, args, state, true)
		case p.Source == BindingAuto && isComplex(p.Type):
			if req.Method != http.MethodGet && req.HasJSONBody() {
				b.bindBody(p, req, args, state, false)
			} else {
				b.bindFields(p, values, query, args, state)
			}
		default:
			b.bindSimple(p, values, query, args, state)
		}
	}
	return args, state
}

func (b *Binder) bindSimple(p *ParameterDescriptor, values RouteValues, query QueryMap, args RouteValues, state *ModelState) {
	var raw []any
	if p.Source != BindingQuery {
		if v, ok := values.Get(p.BindingName); ok {
			raw = []any{v}
		}
	}
	if raw == nil && p.Source != BindingRoute {
		for _, v := range query.GetAll(p.BindingName) {
			raw = append(raw, v)
		}
	}
	if raw == nil {
		return
	}

	value, err := convertRaw(raw, p.Type)
	if err != nil {
		state.AddBindingError(p.BindingName, fmt.Sprintf("The value '%s' is not valid for %s.", FormatValue(raw[0]), p.BindingName), err)
		return
	}
	args.Set(p.BindingName, value.Interface())
}

func (b *Binder) bindBody(p *ParameterDescriptor, req *Request, args RouteValues, state *ModelState, required bool) {
	if len(strings.TrimSpace(string(req.Body))) == 0 {
		if required {
			state.AddError(p.BindingName, "A non-empty request body is required.")
		}
		return
	}
	if !req.HasJSONBody() {
		state.AddError(p.BindingName, fmt.Sprintf("Unsupported content type '%s'.", req.ContentType()))
		return
	}

	target := reflect.New(p.Type)
	if err := json.Unmarshal(req.Body, target.Interface()); err != nil {
		state.AddBindingError(p.BindingName, fmt.Sprintf("The request body is not valid JSON: %v", err), err)
		return
	}
	args.Set(p.BindingName, target.Elem().Interface())
	b.validateModel(p.BindingName, target.Elem(), state)
}

// bindFields fills an exported-field struct from route values and query keys
func (b *Binder) bindFields(p *ParameterDescriptor, values RouteValues, query QueryMap, args RouteValues, state *ModelState) {
	structType := p.Type
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	target := reflect.New(structType).Elem()

	found := false
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		key := fieldKey(field)

		var raw []any
		if v, ok := values.Get(key); ok {
			raw = []any{v}
		} else {
			for _, v := range query.GetAll(key) {
				raw = append(raw, v)
			}
		}
		if raw == nil {
			continue
		}
		found = true

		value, err := convertRaw(raw, field.Type)
		if err != nil {
			state.AddBindingError(p.BindingName+"."+field.Name,
				fmt.Sprintf("The value '%s' is not valid for %s.", FormatValue(raw[0]), field.Name), err)
			continue
		}
		target.Field(i).Set(value)
	}
	if !found {
		return
	}

	if p.Type.Kind() == reflect.Pointer {
		args.Set(p.BindingName, target.Addr().Interface())
	} else {
		args.Set(p.BindingName, target.Interface())
	}
	b.validateModel(p.BindingName, target, state)
}

func fieldKey(field reflect.StructField) string {
	for _, tag := range []string{"form", "query", "json"} {
		if name, _, _ := strings.Cut(field.Tag.Get(tag), ","); name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

func (b *Binder) validateModel(key string, value reflect.Value, state *ModelState) {
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct || b.validate == nil {
		return
	}

	err := b.validate.Struct(value.Interface())
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return
	}
	for _, fe := range fieldErrors {
		path := fe.StructNamespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		state.AddError(key+"."+path, fmt.Sprintf("The %s field failed the '%s' validation.", fe.Field(), fe.Tag()))
	}
}

var (
	timeType          = reflect.TypeFor[time.Time]()
	durationType      = reflect.TypeFor[time.Duration]()
	uuidType          = reflect.TypeFor[uuid.UUID]()
	textUnmarshalType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func isComplex(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType && !reflect.PointerTo(t).Implements(textUnmarshalType)
}

func convertRaw(raw []any, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		if len(raw) == 1 {
			if rv := reflect.ValueOf(raw[0]); rv.IsValid() && rv.Type().AssignableTo(t) {
				return rv, nil
			}
		}
		slice := reflect.MakeSlice(t, 0, len(raw))
		for _, item := range raw {
			v, err := convertOne(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			slice = reflect.Append(slice, v)
		}
		return slice, nil
	}
	return convertOne(raw[0], t)
}

func convertOne(raw any, t reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(raw)
	if rv.IsValid() && rv.Type().AssignableTo(t) {
		return rv, nil
	}
	return ConvertString(FormatValue(raw), t)
}

// ConvertString converts a route or query string to t
func ConvertString(s string, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		elem, err := ConvertString(s, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	switch t {
	case uuidType:
		id, err := uuid.Parse(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(id), nil
	case timeType:
		tm, err := ParseDateTime(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(tm), nil
	case durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalType) {
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	case reflect.Interface:
		if reflect.TypeFor[string]().AssignableTo(t) {
			v.Set(reflect.ValueOf(s))
			break
		}
		return reflect.Value{}, fmt.Errorf("cannot convert '%s' to %s", s, t)
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert '%s' to %s", s, t)
	}
	return v, nil
}

// sortedErrorKeys is used by diagnostics to print model state deterministically
func sortedErrorKeys(m *ModelState) []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}
