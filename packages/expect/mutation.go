package expect

import (
	"reflect"

	"github.com/abdul-hamid-achik/chainspec/packages/format"
	"github.com/abdul-hamid-achik/chainspec/packages/property"
)

// Change runs the subject, which must be a func with no arguments, and
// asserts the named property of target differs before and after. It returns
// a new chain over the subject.
func (c *Chain) Change(target any, name string, label ...string) *Chain {
	c.helper()
	return c.mutation(target, name, "change", label, func(before, after any) (bool, bool) {
		return !deepEqual(before, after), true
	})
}

// Changes is Change.
func (c *Chain) Changes(target any, name string, label ...string) *Chain {
	c.helper()
	return c.Change(target, name, label...)
}

// Increase asserts the named numeric property of target grows when the
// subject runs.
func (c *Chain) Increase(target any, name string, label ...string) *Chain {
	c.helper()
	return c.mutation(target, name, "increase", label, func(before, after any) (bool, bool) {
		return c.numericMove(before, after, 1, label)
	})
}

// Increases is Increase.
func (c *Chain) Increases(target any, name string, label ...string) *Chain {
	c.helper()
	return c.Increase(target, name, label...)
}

// Decrease asserts the named numeric property of target shrinks when the
// subject runs.
func (c *Chain) Decrease(target any, name string, label ...string) *Chain {
	c.helper()
	return c.mutation(target, name, "decrease", label, func(before, after any) (bool, bool) {
		return c.numericMove(before, after, -1, label)
	})
}

// Decreases is Decrease.
func (c *Chain) Decreases(target any, name string, label ...string) *Chain {
	c.helper()
	return c.Decrease(target, name, label...)
}

// numericMove reports whether after moved from before in direction (1 up,
// -1 down). The second result is false when a reading is not a number.
func (c *Chain) numericMove(before, after any, direction int, label []string) (bool, bool) {
	c.helper()
	for _, reading := range []any{before, after} {
		if _, ok := toNumeric(reading); !ok {
			k := c.begin(label)
			k.actual = reading
			k.usage(msg("expected #{act} to be a number"))
			return false, false
		}
	}
	x, _ := toNumeric(before)
	y, _ := toNumeric(after)
	cmp, ok := y.compare(x)
	return ok && cmp == direction, true
}

func (c *Chain) mutation(target any, name, verb string, label []string, moved func(before, after any) (bool, bool)) *Chain {
	c.helper()
	k := c.begin(label)
	next := c.root(c.subject)

	if !isAction(c.subject) {
		k.usage(msg("expected #{this} to be a func with no arguments"))
		return next
	}

	initial := property.Resolve(target, name)
	if !initial.Found {
		c.root(target).Property(name)
		return next
	}

	if err := run(c.subject); err != nil {
		k.actual = err
		k.usage(msg("calling #{this} returned an error: #{act}"))
		return next
	}

	current := property.Resolve(target, name)
	ok, valid := moved(initial.Value, current.Value)
	if !valid {
		return next
	}
	k.assert(ok,
		msg("expected .").Literal(name+" to "+verb),
		msg("expected .").Literal(name+" to not "+verb))
	return next
}

func isAction(fn any) bool {
	if fn == nil {
		return false
	}
	rv := reflect.ValueOf(fn)
	return rv.Kind() == reflect.Func && !rv.IsNil() && rv.Type().NumIn() == 0
}

// run calls fn and returns its trailing error result. Funcs without one
// return nil.
func run(fn any) error {
	rv := reflect.ValueOf(fn)
	t := rv.Type()
	out := rv.Call(nil)
	if n := t.NumOut(); n == 0 || t.Out(n-1) != errorType {
		return nil
	}
	err, _ := out[len(out)-1].Interface().(error)
	if format.IsNil(err) {
		return nil
	}
	return err
}
