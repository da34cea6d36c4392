package expect

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// wantCause describes what a raised error must look like. Zero fields are
// not checked.
type wantCause struct {
	kind       reflect.Type
	target     error
	message    string
	hasMessage bool
	pattern    *regexp.Regexp
}

// Cause invokes the subject and asserts it raises an error. The subject must
// be a func with no arguments; it raises by panicking, or by returning a
// non-nil error when its last result is an error. Cause returns a new chain over the raised
// error, or over nil when nothing was raised.
func (c *Chain) Cause(label ...string) *Chain {
	c.helper()
	return c.cause(wantCause{}, label)
}

// CauseType asserts the subject raises an error with a type assignable to t
// anywhere in its Unwrap chain.
func (c *Chain) CauseType(t reflect.Type, label ...string) *Chain {
	c.helper()
	return c.cause(wantCause{kind: t}, label)
}

// CauseError asserts the subject raises an error matching target under
// errors.Is.
func (c *Chain) CauseError(target error, label ...string) *Chain {
	c.helper()
	return c.cause(wantCause{target: target}, label)
}

// CauseMessage asserts the subject raises an error whose text contains s.
func (c *Chain) CauseMessage(s string, label ...string) *Chain {
	c.helper()
	return c.cause(wantCause{message: s, hasMessage: true}, label)
}

// CauseMatch asserts the subject raises an error whose text matches pattern,
// given as a string or *regexp.Regexp.
func (c *Chain) CauseMatch(pattern any, label ...string) *Chain {
	c.helper()
	re, ok := c.begin(label).pattern(pattern)
	if !ok {
		return c.root(nil)
	}
	return c.cause(wantCause{pattern: re}, label)
}

// CauseTypeMessage combines CauseType and CauseMessage.
func (c *Chain) CauseTypeMessage(t reflect.Type, s string, label ...string) *Chain {
	c.helper()
	return c.cause(wantCause{kind: t, message: s, hasMessage: true}, label)
}

// CauseTypeMatch combines CauseType and CauseMatch.
func (c *Chain) CauseTypeMatch(t reflect.Type, pattern any, label ...string) *Chain {
	c.helper()
	re, ok := c.begin(label).pattern(pattern)
	if !ok {
		return c.root(nil)
	}
	return c.cause(wantCause{kind: t, pattern: re}, label)
}

// Causes is Cause.
func (c *Chain) Causes(label ...string) *Chain {
	c.helper()
	return c.Cause(label...)
}

// CausesType is CauseType.
func (c *Chain) CausesType(t reflect.Type, label ...string) *Chain {
	c.helper()
	return c.CauseType(t, label...)
}

// CausesError is CauseError.
func (c *Chain) CausesError(target error, label ...string) *Chain {
	c.helper()
	return c.CauseError(target, label...)
}

// CausesMessage is CauseMessage.
func (c *Chain) CausesMessage(s string, label ...string) *Chain {
	c.helper()
	return c.CauseMessage(s, label...)
}

// CausesMatch is CauseMatch.
func (c *Chain) CausesMatch(pattern any, label ...string) *Chain {
	c.helper()
	return c.CauseMatch(pattern, label...)
}

// CausesTypeMessage is CauseTypeMessage.
func (c *Chain) CausesTypeMessage(t reflect.Type, s string, label ...string) *Chain {
	c.helper()
	return c.CauseTypeMessage(t, s, label...)
}

// CausesTypeMatch is CauseTypeMatch.
func (c *Chain) CausesTypeMatch(t reflect.Type, pattern any, label ...string) *Chain {
	c.helper()
	return c.CauseTypeMatch(t, pattern, label...)
}

func (c *Chain) cause(want wantCause, label []string) *Chain {
	c.helper()
	k := c.begin(label)

	raised, ok := invoke(c.subject)
	if !ok {
		k.usage(msg("expected #{this} to be a func with no arguments"))
		return c.root(nil)
	}

	if raised != nil {
		next := c.root(raised)
		k.actual = raised

		switch {
		case want.kind != nil:
			k.expected = want.kind
			if !k.assert(hasType(raised, want.kind),
				msg("expected #{this} to cause #{exp} but #{act} was raised"),
				msg("expected #{this} to not cause #{exp} but #{act} was raised")) {
				return next
			}
		case want.target != nil:
			k.expected = want.target
			if !k.assert(errors.Is(raised, want.target),
				msg("expected #{this} to cause #{exp} but #{act} was raised"),
				msg("expected #{this} to not cause #{exp}")) {
				return next
			}
		}

		text := raised.Error()
		switch {
		case want.hasMessage:
			k.expected = want.message
			k.actual = text
			k.assert(strings.Contains(text, want.message),
				msg("expected #{this} to cause an error including #{exp} but got #{act}"),
				msg("expected #{this} to cause an error not including #{exp}"))
			return next
		case want.pattern != nil:
			k.expected = want.pattern
			k.actual = text
			k.assert(want.pattern.MatchString(text),
				msg("expected #{this} to cause an error matching #{exp} but got #{act}"),
				msg("expected #{this} to cause an error not matching #{exp}"))
			return next
		case want.kind != nil, want.target != nil:
			return next
		}
	}

	what := "an error"
	switch {
	case want.kind != nil:
		what = want.kind.String()
	case want.target != nil:
		what = want.target.Error()
	}
	got := msg("")
	if raised != nil {
		got = msg(" but #{act} was raised")
	}
	k.assert(raised != nil,
		msg("expected #{this} to cause ").Literal(what).Append(got),
		msg("expected #{this} to not cause ").Literal(what).Append(got))

	if raised != nil {
		return c.root(raised)
	}
	return c.root(nil)
}

// invoke calls fn, which must be a func with no arguments. A recovered panic
// is raised, and so is a non-nil trailing error result.
func invoke(fn any) (raised error, ok bool) {
	if !isAction(fn) {
		return nil, false
	}

	ok = true
	defer func() {
		if r := recover(); r != nil {
			if err, isErr := r.(error); isErr {
				raised = err
				return
			}
			raised = &PanicError{Value: r}
		}
	}()

	return run(fn), ok
}

// hasType reports whether err, or any error it wraps, has a dynamic type
// assignable to t.
func hasType(err error, t reflect.Type) bool {
	stack := []error{err}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e == nil {
			continue
		}
		if reflect.TypeOf(e).AssignableTo(t) {
			return true
		}
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			stack = append(stack, u.Unwrap())
		case interface{ Unwrap() []error }:
			stack = append(stack, u.Unwrap()...)
		}
	}
	return false
}

// pattern compiles a string or passes through a *regexp.Regexp, reporting a
// usage error for anything else.
func (k *call) pattern(p any) (*regexp.Regexp, bool) {
	switch v := p.(type) {
	case *regexp.Regexp:
		if v != nil {
			return v, true
		}
	case string:
		re, err := regexp.Compile(v)
		if err == nil {
			return re, true
		}
		k.usage(msg("invalid pattern ").Text(v).Literal(": " + err.Error()))
		return nil, false
	}
	k.expected = p
	k.usage(msg("expected #{exp} to be a string or *regexp.Regexp"))
	return nil, false
}
