package expect

import (
	"math"
	"reflect"

	"github.com/abdul-hamid-achik/chainspec/packages/format"
)

// Equal asserts the subject equals expected. Numbers compare by value across
// kinds; slices, maps and funcs compare by identity. With Deep it behaves
// like Eql.
func (c *Chain) Equal(expected any, label ...string) {
	c.helper()
	if c.flags.Has(FlagDeep) {
		c.Eql(expected, label...)
		return
	}
	c.equal(expected, "equal", label)
}

// Eq is Equal.
func (c *Chain) Eq(expected any, label ...string) {
	c.helper()
	c.Equal(expected, label...)
}

// Equals is Equal.
func (c *Chain) Equals(expected any, label ...string) {
	c.helper()
	c.Equal(expected, label...)
}

// Eql asserts the subject deeply equals expected: slices and arrays element
// by element, maps key by key.
func (c *Chain) Eql(expected any, label ...string) {
	c.helper()
	k := c.begin(label)
	k.expected = expected
	k.assert(deepEqual(c.subject, expected),
		msg("expected #{this} to deeply equal #{exp}"),
		msg("expected #{this} to not deeply equal #{exp}"))
}

// Eqls is Eql.
func (c *Chain) Eqls(expected any, label ...string) {
	c.helper()
	c.Eql(expected, label...)
}

// True asserts the subject is true.
func (c *Chain) True(label ...string) {
	c.helper()
	c.equal(true, "be", label)
}

// False asserts the subject is false.
func (c *Chain) False(label ...string) {
	c.helper()
	c.equal(false, "be", label)
}

// Nil asserts the subject is nil, including typed nil pointers, maps,
// slices and funcs.
func (c *Chain) Nil(label ...string) {
	c.helper()
	c.equal(nil, "be", label)
}

func (c *Chain) equal(expected any, op string, label []string) {
	c.helper()
	k := c.begin(label)
	k.expected = expected
	k.assert(shallowEqual(c.subject, expected),
		msg("expected #{this} to "+op+" #{exp}"),
		msg("expected #{this} to not "+op+" #{exp}"))
}

func shallowEqual(a, b any) bool {
	aNil, bNil := format.IsNil(a), format.IsNil(b)
	if aNil || bNil {
		return aNil && bNil
	}

	if x, ok := toNumeric(a); ok {
		if y, ok := toNumeric(b); ok {
			cmp, ok := x.compare(y)
			return ok && cmp == 0
		}
	}
	return identical(a, b)
}

// identical compares values of the same dynamic type with ==, and slices,
// maps and funcs by reference.
func identical(a, b any) (same bool) {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}

	switch ra.Kind() {
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	case reflect.Map, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	}

	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func deepEqual(a, b any) bool {
	aNil, bNil := format.IsNil(a), format.IsNil(b)
	if aNil || bNil {
		return aNil && bNil
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isSequence(ra) && isSequence(rb):
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !deepEqual(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true

	case ra.Kind() == reflect.Map && rb.Kind() == reflect.Map:
		if ra.Len() != rb.Len() {
			return false
		}
		iter := ra.MapRange()
		for iter.Next() {
			other, ok := mapEntry(rb, iter.Key())
			if !ok || !deepEqual(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true

	case ra.Kind() == reflect.Struct, ra.Kind() == reflect.Pointer:
		return reflect.DeepEqual(a, b)
	}
	return shallowEqual(a, b)
}

// mapEntry finds the value m holds for key. Keys of another type match by
// shallow equality, so map[any]any and map[string]any compare either way.
func mapEntry(m, key reflect.Value) (reflect.Value, bool) {
	if key.Type().AssignableTo(m.Type().Key()) {
		if v := m.MapIndex(key); v.IsValid() {
			return v, true
		}
	}
	want := key.Interface()
	iter := m.MapRange()
	for iter.Next() {
		if shallowEqual(want, iter.Key().Interface()) {
			return iter.Value(), true
		}
	}
	return reflect.Value{}, false
}

func isSequence(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

// numeric is a number read from any integer or float kind. Whole values
// that fit an int64 keep their exact integer form.
type numeric struct {
	i     int64
	f     float64
	whole bool
}

func toNumeric(v any) (numeric, bool) {
	if v == nil {
		return numeric{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		return numeric{i: n, f: float64(n), whole: true}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return numeric{i: int64(u), f: float64(u), whole: true}, true
		}
		return numeric{f: float64(u)}, true
	case reflect.Float32, reflect.Float64:
		return numeric{f: rv.Float()}, true
	}
	return numeric{}, false
}

// bound turns a float64 argument into a numeric, keeping whole values exact.
func bound(f float64) numeric {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return numeric{i: int64(f), f: f, whole: true}
	}
	return numeric{f: f}
}

// compare orders n against m. It reports false when either side is NaN.
func (n numeric) compare(m numeric) (int, bool) {
	if n.whole && m.whole {
		switch {
		case n.i < m.i:
			return -1, true
		case n.i > m.i:
			return 1, true
		}
		return 0, true
	}
	if math.IsNaN(n.f) || math.IsNaN(m.f) {
		return 0, false
	}
	switch {
	case n.f < m.f:
		return -1, true
	case n.f > m.f:
		return 1, true
	}
	return 0, true
}
