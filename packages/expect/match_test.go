package expect

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	assertPasses(t, func() { Expect("foobar").To().Match("^foo") })
	assertPasses(t, func() { Expect("foobar").To().Matches(regexp.MustCompile("bar$")) })
	assertPasses(t, func() { Expect("foobar").To().Not().Match("^bar") })

	assertFails(t, func() { Expect("foobar").To().Match(regexp.MustCompile("(?i)^bar"), "blah") },
		`blah: expected "foobar" to match /^bar/i`)
	assertFails(t, func() { Expect("foobar").To().Not().Match(regexp.MustCompile("(?i)^foo"), "blah") },
		`blah: expected "foobar" not to match /^foo/i`)

	assertMisuse(t, func() { Expect(3).Match("x") }, "invalid usage: expected 3 to be a string")
	assertMisuse(t, func() { Expect("x").Match(42) }, "invalid usage: expected 42 to be a string or *regexp.Regexp")
}

func TestSatisfy(t *testing.T) {
	isOne := Describe("Test Predicate", func(v any) bool { return v == 1 })

	assertPasses(t, func() { Expect(1).To().Satisfy(isOne) })
	assertPasses(t, func() { Expect(2).To().Not().Satisfy(isOne) })
	assertPasses(t, func() { Expect("x").Satisfy(PredicateFunc(func(v any) bool { return v == "x" })) })

	assertFails(t, func() { Expect(2).To().Satisfy(isOne, "blah") }, "blah: expected 2 to satisfy Test Predicate")
	assertFails(t, func() { Expect(3).Not().Satisfy(PredicateFunc(func(v any) bool { return v == 3 })) },
		"expected 3 to not satisfy expect.PredicateFunc")
	assertMisuse(t, func() { Expect(3).Satisfy(nil) }, "invalid usage: a predicate is required")
}

func TestInstanceOf(t *testing.T) {
	assertPasses(t, func() { Expect("test").To().Be().InstanceOf(reflect.TypeOf("")) })
	assertPasses(t, func() { Expect(errors.New("x")).To().Be().AnInstanceOf(reflect.TypeOf((*error)(nil)).Elem()) })
	assertPasses(t, func() { Expect(3).To().Not().Be().InstanceOf(reflect.TypeOf("")) })
	assertPasses(t, func() { Expect(nil).To().Be().InstanceOf(nil) })

	assertFails(t, func() { Expect("test").Not().InstanceOf(reflect.TypeOf("")) }, `expected "test" not to be an instance of string`)
	assertFails(t, func() { Expect(3).InstanceOf(reflect.TypeOf(time.Time{})) }, "expected 3 to be an instance of time.Time")
	assertFails(t, func() { Expect(nil).InstanceOf(reflect.TypeOf(0)) }, "expected nil to be an instance of int")
	assertFails(t, func() { Expect(1).InstanceOf(nil) }, "expected 1 to equal nil")
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		subject any
		want    string
	}{
		{nil, "null"},
		{true, "boolean"},
		{1.5, "number"},
		{uint16(3), "number"},
		{"s", "string"},
		{[]any{}, "array"},
		{[2]int{}, "array"},
		{map[string]any{}, "object"},
		{point{}, "expect.point"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assertPasses(t, func() { Expect(tt.subject).To().Be().A().TypeOf(tt.want) })
		})
	}

	assertFails(t, func() { Expect("x").TypeOf("number") }, `expected "x" to be of type "number" but got "string"`)
	assertFails(t, func() { Expect("x").Not().TypeOf("string") }, `expected "x" not to be of type "string"`)
}

func TestSchema(t *testing.T) {
	schema := `{"type":"object","required":["id"],"properties":{"id":{"type":"integer"}}}`

	assertPasses(t, func() { Expect(map[string]any{"id": 1}).To().Schema(schema) })
	assertPasses(t, func() { Expect(map[string]any{"id": 1}).To().Schema([]byte(schema)) })
	assertPasses(t, func() {
		Expect(teaCup{Name: "chai"}).To().Schema(map[string]any{
			"type":     "object",
			"required": []string{"Name"},
		})
	})
	assertPasses(t, func() { Expect(map[string]any{"id": "x"}).To().Not().Schema(schema) })

	err := Recover(func() { Expect(map[string]any{"name": "x"}).Schema(schema) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssertion)
	assert.True(t, strings.HasPrefix(err.Error(), "expected {name=x} to match schema: "), err.Error())
	assert.Contains(t, err.Error(), "id is required")

	assertFails(t, func() { Expect(map[string]any{"id": 1}).Not().Schema(schema) }, "expected {id=1} to not match schema")

	err = Recover(func() { Expect(map[string]any{}).Schema(`{`) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)

	assertMisuse(t, func() { Expect(map[string]any{}).Schema(nil) }, "invalid usage: invalid schema: schema is nil")
	err = Recover(func() { Expect(make(chan int)).Schema(schema) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
}
