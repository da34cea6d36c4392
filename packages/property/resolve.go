package property

import (
	"reflect"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Info is the outcome of a lookup. The zero Info is NotFound.
type Info struct {
	Value any
	Found bool
}

// NotFound reports a path that could not be followed.
var NotFound = Info{}

// Found wraps a resolved value.
func Found(v any) Info {
	return Info{Value: v, Found: true}
}

// Accessor reads a named property from a value. It reports false when the
// value has no such property or reading it failed.
type Accessor interface {
	Access(v reflect.Value, name string) (any, bool)
}

// AccessorFunc adapts a function to the Accessor interface.
type AccessorFunc func(v reflect.Value, name string) (any, bool)

func (f AccessorFunc) Access(v reflect.Value, name string) (any, bool) {
	return f(v, name)
}

// DefaultAccessors returns the lookup strategies in the order they are tried.
func DefaultAccessors() []Accessor {
	return []Accessor{
		AccessorFunc(getterMethod),
		AccessorFunc(isMethod),
		AccessorFunc(bareMethod),
		AccessorFunc(structField),
		AccessorFunc(mapEntry),
		AccessorFunc(errorMessage),
		AccessorFunc(sizeOf),
	}
}

// Resolver walks paths using an ordered list of accessors.
type Resolver struct {
	accessors []Accessor
}

// NewResolver creates a Resolver. With no accessors it uses DefaultAccessors.
func NewResolver(accessors ...Accessor) *Resolver {
	if len(accessors) == 0 {
		accessors = DefaultAccessors()
	}
	return &Resolver{accessors: accessors}
}

var defaultResolver = NewResolver()

// Resolve follows path from root with the default accessors.
func Resolve(root any, path string) Info {
	return defaultResolver.Resolve(root, path)
}

// Lookup reads a single named property with the default accessors.
func Lookup(v any, name string) Info {
	return defaultResolver.Lookup(v, name)
}

// Resolve follows path from root. Malformed paths are NotFound.
func (r *Resolver) Resolve(root any, path string) Info {
	segments, err := Parse(path)
	if err != nil {
		return NotFound
	}
	return r.Walk(root, segments)
}

// Walk follows already parsed segments from root.
func (r *Resolver) Walk(root any, segments []Segment) Info {
	current := root
	for _, seg := range segments {
		if seg.Name != "" {
			info := r.Lookup(current, seg.Name)
			if !info.Found {
				return NotFound
			}
			current = info.Value
		}
		for _, idx := range seg.Indices {
			info := Index(current, idx)
			if !info.Found {
				return NotFound
			}
			current = info.Value
		}
	}
	return Found(current)
}

// Lookup reads a single named property from v, trying each accessor in order.
func (r *Resolver) Lookup(v any, name string) Info {
	if v == nil || name == "" {
		return NotFound
	}
	rv := reflect.ValueOf(v)
	if isNil(rv) {
		return NotFound
	}
	for _, a := range r.accessors {
		if value, ok := a.Access(rv, name); ok {
			return Found(value)
		}
	}
	return NotFound
}

// Index selects a slice or array position, or a map key, from v.
func Index(v any, idx string) Info {
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return NotFound
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= rv.Len() {
			return NotFound
		}
		return valueInfo(rv.Index(i))
	case reflect.Map:
		for _, key := range mapKeys(rv.Type().Key(), idx) {
			if entry := rv.MapIndex(key); entry.IsValid() {
				return valueInfo(entry)
			}
		}
	}
	return NotFound
}

// mapKeys converts an index to the candidate keys for a map key type.
func mapKeys(keyType reflect.Type, idx string) []reflect.Value {
	switch keyType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(idx, 10, 64)
		if err != nil {
			return nil
		}
		key := reflect.New(keyType).Elem()
		if key.OverflowInt(n) {
			return nil
		}
		key.SetInt(n)
		return []reflect.Value{key}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(idx, 10, 64)
		if err != nil {
			return nil
		}
		key := reflect.New(keyType).Elem()
		if key.OverflowUint(n) {
			return nil
		}
		key.SetUint(n)
		return []reflect.Value{key}
	case reflect.String:
		return []reflect.Value{reflect.ValueOf(idx).Convert(keyType)}
	case reflect.Interface:
		var keys []reflect.Value
		if stringType.AssignableTo(keyType) {
			keys = append(keys, reflect.ValueOf(idx))
		}
		if n, err := strconv.Atoi(idx); err == nil && intType.AssignableTo(keyType) {
			keys = append(keys, reflect.ValueOf(n))
		}
		return keys
	}
	return nil
}

var (
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(0)
)

func getterMethod(v reflect.Value, name string) (any, bool) {
	return callMethod(v, "Get"+capitalize(name), nil)
}

func isMethod(v reflect.Value, name string) (any, bool) {
	return callMethod(v, "Is"+capitalize(name), func(t reflect.Type) bool {
		return t.NumOut() == 1 && t.Out(0).Kind() == reflect.Bool
	})
}

func bareMethod(v reflect.Value, name string) (any, bool) {
	if value, ok := callMethod(v, name, nil); ok {
		return value, true
	}
	if upper := capitalize(name); upper != name {
		return callMethod(v, upper, nil)
	}
	return nil, false
}

func structField(v reflect.Value, name string) (any, bool) {
	rv, ok := indirect(v)
	if !ok || rv.Kind() != reflect.Struct {
		return nil, false
	}

	t := rv.Type()
	candidates := []string{name}
	if upper := capitalize(name); upper != name {
		candidates = append(candidates, upper)
	}
	for _, n := range candidates {
		if f, found := t.FieldByName(n); found && f.IsExported() {
			if value, ok := fieldValue(rv, f.Index); ok {
				return value, true
			}
		}
	}

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || jsonName(f) != name {
			continue
		}
		if value, ok := fieldValue(rv, f.Index); ok {
			return value, true
		}
	}
	return nil, false
}

func fieldValue(v reflect.Value, index []int) (any, bool) {
	fv, err := v.FieldByIndexErr(index)
	if err != nil || !fv.CanInterface() {
		return nil, false
	}
	return fv.Interface(), true
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	return tag
}

func mapEntry(v reflect.Value, name string) (any, bool) {
	rv, ok := indirect(v)
	if !ok || rv.Kind() != reflect.Map {
		return nil, false
	}
	keyType := rv.Type().Key()
	var key reflect.Value
	switch {
	case keyType.Kind() == reflect.String:
		key = reflect.ValueOf(name).Convert(keyType)
	case keyType.Kind() == reflect.Interface && stringType.AssignableTo(keyType):
		key = reflect.ValueOf(name)
	default:
		return nil, false
	}
	entry := rv.MapIndex(key)
	if !entry.IsValid() || !entry.CanInterface() {
		return nil, false
	}
	return entry.Interface(), true
}

func errorMessage(v reflect.Value, name string) (any, bool) {
	if name != "message" || !v.Type().Implements(errorType) {
		return nil, false
	}
	return callMethod(v, "Error", nil)
}

func sizeOf(v reflect.Value, name string) (any, bool) {
	if name != "length" && name != "size" {
		return nil, false
	}
	rv, ok := indirect(v)
	if !ok {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return nil, false
}

// callMethod calls the zero-argument method name on v. Methods with a pointer
// receiver are found on a copy when v is not a pointer. A panic, a missing
// result or a trailing non-nil error all count as failure.
func callMethod(v reflect.Value, name string, accept func(reflect.Type) bool) (result any, ok bool) {
	m := methodByName(v, name)
	if !m.IsValid() {
		return nil, false
	}
	t := m.Type()
	if t.NumIn() != 0 || t.NumOut() == 0 {
		return nil, false
	}
	if accept != nil && !accept(t) {
		return nil, false
	}

	defer func() {
		if recover() != nil {
			result, ok = nil, false
		}
	}()

	out := m.Call(nil)
	if n := len(out); n > 1 && t.Out(n-1) == errorType && !out[n-1].IsNil() {
		return nil, false
	}
	return out[0].Interface(), true
}

func methodByName(v reflect.Value, name string) reflect.Value {
	if m := v.MethodByName(name); m.IsValid() {
		return m
	}
	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		return reflect.Value{}
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.MethodByName(name)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func valueInfo(v reflect.Value) Info {
	if !v.CanInterface() {
		return NotFound
	}
	return Found(v.Interface())
}
