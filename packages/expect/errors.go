package expect

import (
	"errors"
	"fmt"
)

var (
	// ErrAssertion is the sentinel wrapped by every AssertionError.
	ErrAssertion = errors.New("assertion failed")
	// ErrUsage is the sentinel wrapped by every UsageError.
	ErrUsage = errors.New("invalid usage")
)

// AssertionError reports a predicate that disagreed with its expectation.
// Message is the final formatted text, label included.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return e.Message
}

func (e *AssertionError) Unwrap() error {
	return ErrAssertion
}

// UsageError reports a misuse of the API, such as a range check on a value
// that is not a number.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return ErrUsage.Error() + ": " + e.Message
}

func (e *UsageError) Unwrap() error {
	return ErrUsage
}

// PanicError carries a recovered panic value that was not an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and returns the AssertionError or UsageError it raised, or
// nil if it returned normally. Any other panic is propagated.
func Recover(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok && (errors.Is(e, ErrAssertion) || errors.Is(e, ErrUsage)) {
			err = e
			return
		}
		panic(r)
	}()

	fn()
	return nil
}
