package format

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Nil is the text used for nil values.
const Nil = "nil"

// patternFlagOrder is the order inline regexp flags are emitted in. These
// are RE2's own flags: U is ungreedy matching, not unicode classes.
const patternFlagOrder = "imsU"

// Value formats v for use in a diagnostic message.
//
// Strings are double-quoted, slices and arrays render as [e0, e1] with each
// element formatted recursively, maps render as {k=v} sorted by key, and a
// *regexp.Regexp renders as /pattern/flags. Everything else uses its natural
// string form.
func Value(v any) string {
	var b strings.Builder
	writeValue(&b, v, true)
	return b.String()
}

// writeValue appends v to b. When quote is false strings are written bare,
// which is how values nested inside maps are shown.
func writeValue(b *strings.Builder, v any, quote bool) {
	if v == nil {
		b.WriteString(Nil)
		return
	}

	rv := reflect.ValueOf(v)
	if isNilValue(rv) {
		b.WriteString(Nil)
		return
	}

	switch val := v.(type) {
	case string:
		writeString(b, val, quote)
		return
	case *regexp.Regexp:
		b.WriteString(Pattern(val))
		return
	case reflect.Type:
		b.WriteString(val.String())
		return
	case error:
		b.WriteString(val.Error())
		return
	case fmt.Stringer:
		b.WriteString(val.String())
		return
	}

	switch rv.Kind() {
	case reflect.String:
		writeString(b, rv.String(), quote)
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, rv.Index(i).Interface(), quote)
		}
		b.WriteByte(']')
	case reflect.Map:
		writeMap(b, rv)
	case reflect.Func:
		b.WriteString(rv.Type().String())
	default:
		fmt.Fprint(b, v)
	}
}

func writeString(b *strings.Builder, s string, quote bool) {
	if !quote {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	b.WriteString(s)
	b.WriteByte('"')
}

func writeMap(b *strings.Builder, rv reflect.Value) {
	type entry struct {
		key   string
		value any
	}

	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		var kb strings.Builder
		writeValue(&kb, iter.Key().Interface(), false)
		entries = append(entries, entry{key: kb.String(), value: iter.Value().Interface()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})

	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key)
		b.WriteByte('=')
		writeValue(b, e.value, false)
	}
	b.WriteByte('}')
}

// Pattern formats a regular expression as /source/flags. A leading inline
// flag group such as (?is) is moved behind the closing slash.
func Pattern(re *regexp.Regexp) string {
	if re == nil {
		return Nil
	}

	source := re.String()
	flags := ""
	if strings.HasPrefix(source, "(?") {
		if end := strings.IndexByte(source, ')'); end > 2 {
			group := source[2:end]
			if strings.Trim(group, patternFlagOrder) == "" {
				flags = group
				source = source[end+1:]
			}
		}
	}

	var b strings.Builder
	b.WriteByte('/')
	b.WriteString(source)
	b.WriteByte('/')
	for _, f := range patternFlagOrder {
		if strings.ContainsRune(flags, f) {
			b.WriteRune(f)
		}
	}
	return b.String()
}

// List joins formatted values in the "a", "b", and "c" style used by key-set
// messages. Two items still get the serial comma: "a", and "b".
func List(values []any, conjunction string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return Value(values[0])
	}

	var b strings.Builder
	for _, v := range values[:len(values)-1] {
		b.WriteString(Value(v))
		b.WriteString(", ")
	}
	b.WriteString(conjunction)
	b.WriteByte(' ')
	b.WriteString(Value(values[len(values)-1]))
	return b.String()
}

func isNilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// IsNil reports whether v is nil or a nil pointer, map, slice, func, channel
// or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	return isNilValue(reflect.ValueOf(v))
}
