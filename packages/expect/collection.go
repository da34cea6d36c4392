package expect

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/chainspec/packages/format"
)

// LengthOf asserts the subject's length is n. Strings are measured in runes.
// It returns a Length chain over the subject.
func (c *Chain) LengthOf(n int, label ...string) *Chain {
	c.helper()
	k := c.begin(label)
	length, ok := k.length()
	if ok {
		k.expected = n
		k.actual = length
		k.assert(length == n,
			msg("expected #{this} to have a length of #{exp} but got #{act}"),
			msg("expected #{this} to not have a length of #{act}"))
	}
	return c.rootWith(c.subject, FlagLength)
}

// SizeOf is LengthOf.
func (c *Chain) SizeOf(n int, label ...string) *Chain {
	c.helper()
	return c.LengthOf(n, label...)
}

// Empty asserts the subject's length is zero.
func (c *Chain) Empty(label ...string) {
	c.helper()
	k := c.begin(label)
	length, ok := k.length()
	if !ok {
		return
	}
	k.assert(length == 0,
		msg("expected #{this} to be empty"),
		msg("expected #{this} not to be empty"))
}

// Include asserts the subject holds v: an element of a slice or array, a
// substring of a string, or a subset of a map's entries. Any other subject
// does not include anything. It returns a Contains chain over the subject.
func (c *Chain) Include(v any, label ...string) *Chain {
	c.helper()
	k := c.begin(label)
	k.assert(includes(c.subject, v),
		msg("expected #{this} to include ").Text(v),
		msg("expected #{this} to not include ").Text(v))
	return c.rootWith(c.subject, FlagContains)
}

// Includes is Include.
func (c *Chain) Includes(v any, label ...string) *Chain {
	c.helper()
	return c.Include(v, label...)
}

func includes(subject, v any) bool {
	if format.IsNil(subject) {
		return false
	}

	rv := reflect.ValueOf(subject)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if deepEqual(rv.Index(i).Interface(), v) {
				return true
			}
		}
	case reflect.String:
		if v == nil {
			return false
		}
		if sub := reflect.ValueOf(v); sub.Kind() == reflect.String {
			return strings.Contains(rv.String(), sub.String())
		}
	case reflect.Map:
		return containsEntries(rv, v)
	}
	return false
}

// containsEntries reports whether every entry of candidate is present, and
// deeply equal, in m.
func containsEntries(m reflect.Value, candidate any) bool {
	if format.IsNil(candidate) {
		return false
	}
	cv := reflect.ValueOf(candidate)
	if cv.Kind() != reflect.Map || !cv.Type().Key().AssignableTo(m.Type().Key()) {
		return false
	}
	iter := cv.MapRange()
	for iter.Next() {
		entry := m.MapIndex(iter.Key())
		if !entry.IsValid() || !deepEqual(entry.Interface(), iter.Value().Interface()) {
			return false
		}
	}
	return true
}

// Substring asserts the subject is a string containing s.
func (c *Chain) Substring(s string, label ...string) {
	c.helper()
	k := c.begin(label)
	text, ok := k.text()
	if !ok {
		return
	}
	k.assert(strings.Contains(text, s),
		msg("expected #{this} to contain ").Text(s),
		msg("expected #{this} to not contain ").Text(s))
}

// text reads the subject as a string, reporting a usage error if it is not
// one.
func (k *call) text() (string, bool) {
	if s := k.chain.subject; s != nil {
		if rv := reflect.ValueOf(s); rv.Kind() == reflect.String {
			return rv.String(), true
		}
	}
	k.usage(msg("expected #{this} to be a string"))
	return "", false
}

// Keys asserts the subject map has the given keys. By default the key set
// must match exactly; Contain only requires the keys to be present and Any
// requires at least one of them.
func (c *Chain) Keys(keys ...string) {
	c.helper()
	c.keys(keys, nil)
}

// KeysOf is Keys with the keys passed as a slice.
func (c *Chain) KeysOf(keys []string, label ...string) {
	c.helper()
	c.keys(keys, label)
}

// KeysFrom is Keys with the keys taken from another map.
func (c *Chain) KeysFrom(m any, label ...string) {
	c.helper()
	if format.IsNil(m) || reflect.ValueOf(m).Kind() != reflect.Map {
		k := c.begin(label)
		k.expected = m
		k.usage(msg("expected #{exp} to be a map of keys"))
		return
	}
	c.keys(mapKeys(reflect.ValueOf(m)), label)
}

func (c *Chain) keys(keys []string, label []string) {
	c.helper()
	k := c.begin(label)
	if len(keys) == 0 {
		k.usage(msg("keys are required"))
		return
	}
	if format.IsNil(c.subject) || reflect.ValueOf(c.subject).Kind() != reflect.Map {
		k.usage(msg("expected #{this} to be a map"))
		return
	}

	present := make(map[string]bool)
	for _, key := range mapKeys(reflect.ValueOf(c.subject)) {
		present[key] = true
	}

	anyMode := c.flags.Has(FlagAny)
	var ok bool
	if anyMode {
		for _, key := range keys {
			if present[key] {
				ok = true
				break
			}
		}
	} else {
		ok = true
		required := make(map[string]bool, len(keys))
		for _, key := range keys {
			required[key] = true
			if !present[key] {
				ok = false
			}
		}
		if !c.flags.Has(FlagNot) && !c.flags.Has(FlagContains) {
			ok = ok && len(required) == len(present)
		}
	}

	k.assert(ok,
		msg("expected #{this} to ").Literal(keysPhrase(keys, c.flags)),
		msg("expected #{this} to not ").Literal(keysPhrase(keys, c.flags)))
}

func keysPhrase(keys []string, flags Flags) string {
	var b strings.Builder
	if flags.Has(FlagContains) {
		b.WriteString("contain ")
	} else {
		b.WriteString("have ")
	}

	if len(keys) == 1 {
		b.WriteString("key ")
		b.WriteString(format.Value(keys[0]))
		return b.String()
	}

	conjunction := "and"
	if flags.Has(FlagAny) {
		conjunction = "or"
	}
	values := make([]any, len(keys))
	for i, key := range keys {
		values[i] = key
	}
	b.WriteString("keys ")
	b.WriteString(format.List(values, conjunction))
	return b.String()
}

// mapKeys returns the keys of m in their natural string form, sorted.
func mapKeys(m reflect.Value) []string {
	keys := make([]string, 0, m.Len())
	for _, key := range m.MapKeys() {
		if key.Kind() == reflect.String {
			keys = append(keys, key.String())
			continue
		}
		keys = append(keys, fmt.Sprint(key.Interface()))
	}
	sort.Strings(keys)
	return keys
}

// Members asserts the subject slice holds the same members as set, ignoring
// order. With Contain it only asserts the subject is a superset of set.
func (c *Chain) Members(set any, label ...string) {
	c.helper()
	k := c.begin(label)
	k.expected = set

	if !isCollection(c.subject) {
		k.usage(msg("expected #{this} to be a slice or array"))
		return
	}
	if !isCollection(set) {
		k.usage(msg("expected #{exp} to be a slice or array"))
		return
	}

	if c.flags.Has(FlagContains) {
		k.assert(subsetOf(set, c.subject),
			msg("expected #{this} to be a superset of #{exp}"),
			msg("expected #{this} to not be a superset of #{exp}"))
		return
	}
	k.assert(subsetOf(set, c.subject) && subsetOf(c.subject, set),
		msg("expected #{this} to have the same members as #{exp}"),
		msg("expected #{this} to not have the same members as #{exp}"))
}

func isCollection(v any) bool {
	if v == nil {
		return false
	}
	kind := reflect.ValueOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func subsetOf(subset, superset any) bool {
	sub := reflect.ValueOf(subset)
	for i := 0; i < sub.Len(); i++ {
		if !includes(superset, sub.Index(i).Interface()) {
			return false
		}
	}
	return true
}
