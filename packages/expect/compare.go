package expect

import (
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Within asserts start <= subject <= finish. With Length it checks the
// subject's length instead.
func (c *Chain) Within(start, finish float64, label ...string) {
	c.helper()
	k := c.begin(label)
	rng := formatNumber(start) + ".." + formatNumber(finish)

	if c.flags.Has(FlagLength) {
		length, ok := k.length()
		if !ok {
			return
		}
		k.assert(inRange(bound(float64(length)), start, finish),
			msg("expected #{this} to have a length within "+rng),
			msg("expected #{this} to not have a length within "+rng))
		return
	}

	value, ok := k.number()
	if !ok {
		return
	}
	k.assert(inRange(value, start, finish),
		msg("expected #{this} to be within "+rng),
		msg("expected #{this} to not be within "+rng))
}

func inRange(value numeric, start, finish float64) bool {
	lo, ok := value.compare(bound(start))
	if !ok || lo < 0 {
		return false
	}
	hi, ok := value.compare(bound(finish))
	return ok && hi <= 0
}

// Above asserts subject > n.
func (c *Chain) Above(n float64, label ...string) {
	c.helper()
	c.compareTo(n, func(cmp int) bool { return cmp > 0 },
		"above", "at most", "not have a length above", label)
}

// GreaterThan is Above.
func (c *Chain) GreaterThan(n float64, label ...string) {
	c.helper()
	c.Above(n, label...)
}

// Gt is Above.
func (c *Chain) Gt(n float64, label ...string) {
	c.helper()
	c.Above(n, label...)
}

// Least asserts subject >= n.
func (c *Chain) Least(n float64, label ...string) {
	c.helper()
	c.compareTo(n, func(cmp int) bool { return cmp >= 0 },
		"at least", "below", "have a length below", label)
}

// Gte is Least.
func (c *Chain) Gte(n float64, label ...string) {
	c.helper()
	c.Least(n, label...)
}

// Below asserts subject < n.
func (c *Chain) Below(n float64, label ...string) {
	c.helper()
	c.compareTo(n, func(cmp int) bool { return cmp < 0 },
		"below", "at least", "not have a length below", label)
}

// LessThan is Below.
func (c *Chain) LessThan(n float64, label ...string) {
	c.helper()
	c.Below(n, label...)
}

// Lt is Below.
func (c *Chain) Lt(n float64, label ...string) {
	c.helper()
	c.Below(n, label...)
}

// Most asserts subject <= n.
func (c *Chain) Most(n float64, label ...string) {
	c.helper()
	c.compareTo(n, func(cmp int) bool { return cmp <= 0 },
		"at most", "above", "have a length above", label)
}

// Lte is Most.
func (c *Chain) Lte(n float64, label ...string) {
	c.helper()
	c.Most(n, label...)
}

func (c *Chain) compareTo(n float64, test func(int) bool, op, negatedOp, negatedLength string, label []string) {
	c.helper()
	k := c.begin(label)
	limit := formatNumber(n)

	if c.flags.Has(FlagLength) {
		length, ok := k.length()
		if !ok {
			return
		}
		cmp, ok := bound(float64(length)).compare(bound(n))
		k.assert(ok && test(cmp),
			msg("expected #{this} to have a length "+op+" "+limit+" but got "+strconv.Itoa(length)),
			msg("expected #{this} to "+negatedLength+" "+limit))
		return
	}

	value, ok := k.number()
	if !ok {
		return
	}
	cmp, ok := value.compare(bound(n))
	k.assert(ok && test(cmp),
		msg("expected #{this} to be "+op+" "+limit),
		msg("expected #{this} to be "+negatedOp+" "+limit))
}

// CloseTo asserts |subject - expected| <= delta.
func (c *Chain) CloseTo(expected, delta float64, label ...string) {
	c.helper()
	k := c.begin(label)
	value, ok := k.number()
	if !ok {
		return
	}
	text := formatNumber(expected) + " +/- " + formatNumber(delta)
	k.assert(math.Abs(value.f-expected) <= delta,
		msg("expected #{this} to be close to "+text),
		msg("expected #{this} not to be close to "+text))
}

// CloseToInt is CloseTo in integer arithmetic. Fractional subjects are
// truncated.
func (c *Chain) CloseToInt(expected, delta int64, label ...string) {
	c.helper()
	k := c.begin(label)
	value, ok := k.number()
	if !ok {
		return
	}
	n := value.i
	if !value.whole {
		n = int64(value.f)
	}
	// distance in uint64 so extremes cannot overflow
	var diff uint64
	if n >= expected {
		diff = uint64(n) - uint64(expected)
	} else {
		diff = uint64(expected) - uint64(n)
	}
	text := strconv.FormatInt(expected, 10) + " +/- " + strconv.FormatInt(delta, 10)
	k.assert(delta >= 0 && diff <= uint64(delta),
		msg("expected #{this} to be close to "+text),
		msg("expected #{this} not to be close to "+text))
}

// number reads the subject as a number, reporting a usage error if it is not
// one.
func (k *call) number() (numeric, bool) {
	value, ok := toNumeric(k.chain.subject)
	if !ok {
		k.usage(msg("expected #{this} to be a number"))
	}
	return value, ok
}

// length measures the subject, reporting a usage error if it has no length.
func (k *call) length() (int, bool) {
	n, ok := measure(k.chain.subject)
	if !ok {
		k.usage(msg("expected #{this} to be a string, slice, array or map"))
	}
	return n, ok
}

// measure returns the rune count of a string or the length of a slice, array
// or map.
func measure(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
