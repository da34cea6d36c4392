package expect

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customError struct {
	msg string
}

func (e *customError) Error() string { return e.msg }

var (
	errSpecific = errors.New("boo")
	customType  = reflect.TypeOf(&customError{})
	errType     = reflect.TypeOf((*error)(nil)).Elem()
)

func TestCause(t *testing.T) {
	good := func() {}
	bad := func() error { return errors.New("testing") }
	npe := func() { panic(&customError{msg: "hello"}) }
	specific := func() error { return errSpecific }
	wrapped := func() error { return fmt.Errorf("outer: %w", &customError{msg: "inner"}) }
	pair := func() (int, error) { return 0, errSpecific }

	passing := []struct {
		name string
		fn   func()
	}{
		{"nothing raised", func() { Expect(good).To().Not().Cause() }},
		{"nothing of type", func() { Expect(good).To().Not().CauseType(customType) }},
		{"nothing matching target", func() { Expect(good).To().Not().CauseError(errSpecific) }},
		{"returned error", func() { Expect(bad).To().Cause() }},
		{"interface type", func() { Expect(bad).To().CauseType(errType) }},
		{"other type", func() { Expect(bad).To().Not().CauseType(customType) }},
		{"other target", func() { Expect(bad).To().Not().CauseError(errSpecific) }},
		{"panic", func() { Expect(npe).To().Cause() }},
		{"panic type", func() { Expect(npe).To().CauseType(customType) }},
		{"target", func() { Expect(specific).To().CauseError(errSpecific) }},
		{"wrapped type", func() { Expect(wrapped).To().CauseType(customType) }},
		{"trailing error result", func() { Expect(pair).Causes().Equal(errSpecific) }},
		{"match", func() { Expect(bad).To().CauseMatch("testing") }},
		{"not match", func() { Expect(bad).To().Not().CauseMatch("hello") }},
		{"message", func() { Expect(bad).To().CauseMessage("test") }},
		{"not message", func() { Expect(bad).To().Not().CauseMessage("hello") }},
		{"type and match", func() { Expect(bad).To().CauseTypeMatch(errType, regexp.MustCompile("^test")) }},
		{"type and message", func() { Expect(bad).To().CauseTypeMessage(errType, "testing") }},
		{"aliases", func() {
			Expect(bad).CausesType(errType)
			Expect(specific).CausesError(errSpecific)
			Expect(bad).CausesMessage("testing")
			Expect(bad).CausesMatch("ing$")
			Expect(bad).CausesTypeMessage(errType, "test")
			Expect(bad).CausesTypeMatch(errType, "test")
		}},
	}

	for _, tt := range passing {
		t.Run(tt.name, func(t *testing.T) {
			assertPasses(t, tt.fn)
		})
	}
}

func TestCause_Failures(t *testing.T) {
	good := func() {}
	bad := func() error { return errors.New("testing") }
	npe := func() { panic(&customError{msg: "hello"}) }
	specific := func() error { return errSpecific }

	tests := []struct {
		name    string
		fn      func()
		message string
	}{
		{"nothing raised", func() { Expect(good).Cause() }, "expected func() to cause an error"},
		{"type not raised", func() { Expect(good).CauseType(customType) }, "expected func() to cause *expect.customError"},
		{"target not raised", func() { Expect(good).CauseError(errSpecific) }, "expected func() to cause boo"},
		{"raised when negated", func() { Expect(bad).Not().Cause() },
			"expected func() error to not cause an error but testing was raised"},
		{"wrong type", func() { Expect(bad).CauseType(customType) },
			"expected func() error to cause *expect.customError but testing was raised"},
		{"wrong target", func() { Expect(bad).CauseError(errSpecific) },
			"expected func() error to cause boo but testing was raised"},
		{"type when negated", func() { Expect(bad).Not().CauseType(errType) },
			"expected func() error to not cause error but testing was raised"},
		{"panic type when negated", func() { Expect(npe).Not().CauseType(customType) },
			"expected func() to not cause *expect.customError but hello was raised"},
		{"other target", func() { Expect(specific).CauseError(errors.New("eek")) },
			"expected func() error to cause eek but boo was raised"},
		{"target when negated", func() { Expect(specific).Not().CauseError(errSpecific) },
			"expected func() error to not cause boo"},
		{"match when negated", func() { Expect(bad).Not().CauseMatch(regexp.MustCompile("testing")) },
			"expected func() error to cause an error not matching /testing/"},
		{"no match", func() { Expect(bad).CauseMatch(regexp.MustCompile("hello")) },
			`expected func() error to cause an error matching /hello/ but got "testing"`},
		{"type and no match", func() { Expect(bad).CauseTypeMatch(errType, regexp.MustCompile("hello"), "blah") },
			`blah: expected func() error to cause an error matching /hello/ but got "testing"`},
		{"type and no message", func() { Expect(bad).CauseTypeMessage(errType, "hello", "blah") },
			`blah: expected func() error to cause an error including "hello" but got "testing"`},
		{"message when negated", func() { Expect(bad).Not().CauseMessage("test") },
			`expected func() error to cause an error not including "test"`},
		{"message with nothing raised", func() { Expect(good).CauseMessage("x") }, "expected func() to cause an error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFails(t, tt.fn, tt.message)
		})
	}
}

func TestCause_Misuse(t *testing.T) {
	assertMisuse(t, func() { Expect(42).Cause() }, "invalid usage: expected 42 to be a func with no arguments")
	assertMisuse(t, func() { Expect(func(int) {}).Cause() }, "invalid usage: expected func(int) to be a func with no arguments")
	assertMisuse(t, func() { Expect(func() {}).CauseMatch(42) }, "invalid usage: expected 42 to be a string or *regexp.Regexp")

	err := Recover(func() { Expect(func() {}).CauseMatch("(") })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
	assert.True(t, strings.HasPrefix(err.Error(), `invalid usage: invalid pattern "(": `), err.Error())
}

func TestCause_ReturnsChainOverRaisedError(t *testing.T) {
	bad := func() error { return errors.New("testing") }
	panicky := func() { panic("not an error") }

	assertPasses(t, func() {
		Expect(bad).To().CauseType(errType).With().PropertyValue("message", "testing")
	})
	assertPasses(t, func() {
		Expect(panicky).To().CauseType(reflect.TypeOf(&PanicError{})).With().PropertyValue("value", "not an error")
	})

	next := Expect(func() {}).Not().Cause()
	assert.Nil(t, next.Subject())

	raised := Expect(bad).Cause().Subject()
	require.Error(t, raised.(error))
	assert.Equal(t, "testing", raised.(error).Error())
}

func TestCause_AnyZeroArgumentFunc(t *testing.T) {
	value := func() int { return 1 }
	exploding := func() int { panic("boom") }

	assertPasses(t, func() { Expect(value).To().Not().Cause() })
	assertPasses(t, func() { Expect(exploding).To().CauseMessage("boom") })
	assertPasses(t, func() {
		Expect(exploding).To().CauseType(reflect.TypeOf(&PanicError{})).With().PropertyValue("value", "boom")
	})
	assertFails(t, func() { Expect(value).To().Cause() }, "expected func() int to cause an error")
	assertFails(t, func() { Expect(exploding).To().Not().Cause() },
		"expected func() int to not cause an error but panic: boom was raised")
}

func TestCause_NilDereference(t *testing.T) {
	var c *customError
	deref := func() string { return c.msg }

	assertPasses(t, func() {
		Expect(deref).To().CauseType(reflect.TypeOf((*runtime.Error)(nil)).Elem()).
			With().PropertyValue("message", "runtime error: invalid memory address or nil pointer dereference")
	})
	assertPasses(t, func() { Expect(deref).To().CauseMessage("nil pointer dereference") })
}

func TestCause_NonErrorPanicIsRaised(t *testing.T) {
	assertPasses(t, func() {
		Expect(func() { panic(fmt.Sprintf("code %d", 7)) }).To().CauseMessage("code 7")
	})
}
