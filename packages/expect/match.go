package expect

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/abdul-hamid-achik/chainspec/packages/format"
	"github.com/xeipuuv/gojsonschema"
)

// Match asserts the subject is a string in which pattern finds a match.
// pattern is a string or *regexp.Regexp.
func (c *Chain) Match(pattern any, label ...string) {
	c.helper()
	k := c.begin(label)
	text, ok := k.text()
	if !ok {
		return
	}
	re, ok := k.pattern(pattern)
	if !ok {
		return
	}
	k.assert(re.MatchString(text),
		msg("expected #{this} to match ").Literal(format.Pattern(re)),
		msg("expected #{this} not to match ").Literal(format.Pattern(re)))
}

// Matches is Match.
func (c *Chain) Matches(pattern any, label ...string) {
	c.helper()
	c.Match(pattern, label...)
}

// Predicate is a test a subject can satisfy.
type Predicate interface {
	Test(v any) bool
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(v any) bool

func (f PredicateFunc) Test(v any) bool {
	return f(v)
}

type namedPredicate struct {
	name string
	fn   func(v any) bool
}

func (p namedPredicate) Test(v any) bool { return p.fn(v) }
func (p namedPredicate) String() string { return p.name }

// Describe returns a Predicate that is shown as name in failure messages.
func Describe(name string, fn func(v any) bool) Predicate {
	return namedPredicate{name: name, fn: fn}
}

// Satisfy asserts p accepts the subject.
func (c *Chain) Satisfy(p Predicate, label ...string) {
	c.helper()
	k := c.begin(label)
	if p == nil {
		k.usage(msg("a predicate is required"))
		return
	}
	k.assert(p.Test(c.subject),
		msg("expected #{this} to satisfy ").Text(p),
		msg("expected #{this} to not satisfy ").Text(p))
}

// InstanceOf asserts the subject's dynamic type is assignable to t; for an
// interface type, that it implements t. A nil t asserts the subject is nil.
// It returns a new chain over the subject.
func (c *Chain) InstanceOf(t reflect.Type, label ...string) *Chain {
	c.helper()
	if t == nil {
		c.equal(nil, "equal", label)
		return c.root(c.subject)
	}

	k := c.begin(label)
	ok := c.subject != nil && reflect.TypeOf(c.subject).AssignableTo(t)
	k.assert(ok,
		msg("expected #{this} to be an instance of ").Literal(t.String()),
		msg("expected #{this} not to be an instance of ").Literal(t.String()))
	return c.root(c.subject)
}

// AnInstanceOf is InstanceOf.
func (c *Chain) AnInstanceOf(t reflect.Type, label ...string) *Chain {
	c.helper()
	return c.InstanceOf(t, label...)
}

// TypeOf asserts the subject's JSON-style type name: null, boolean, number,
// string, array or object. Other values use their Go type.
func (c *Chain) TypeOf(name string, label ...string) {
	c.helper()
	k := c.begin(label)
	actual := typeName(c.subject)
	k.assert(actual == name,
		msg("expected #{this} to be of type ").Text(name).Literal(" but got ").Text(actual),
		msg("expected #{this} not to be of type ").Text(name))
}

func typeName(v any) string {
	if format.IsNil(v) {
		return "null"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		return "object"
	}
	return rv.Type().String()
}

// Schema asserts the subject, encoded as JSON, validates against schema.
// schema is JSON text as a string or []byte, or any value that encodes to a
// JSON schema document.
func (c *Chain) Schema(schema any, label ...string) {
	c.helper()
	k := c.begin(label)

	schemaJSON, err := schemaBytes(schema)
	if err != nil {
		k.usage(msg("invalid schema: ").Literal(err.Error()))
		return
	}
	document, err := json.Marshal(c.subject)
	if err != nil {
		k.usage(msg("expected #{this} to encode as JSON: ").Literal(err.Error()))
		return
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		k.usage(msg("invalid schema: ").Literal(err.Error()))
		return
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	k.assert(result.Valid(),
		msg("expected #{this} to match schema: ").Literal(strings.Join(problems, "; ")),
		msg("expected #{this} to not match schema"))
}

func schemaBytes(schema any) ([]byte, error) {
	switch s := schema.(type) {
	case nil:
		return nil, fmt.Errorf("schema is nil")
	case string:
		return []byte(s), nil
	case []byte:
		return s, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	return data, nil
}
