// Package expect is a fluent assertion engine for Go tests.
//
// A chain wraps a subject value. Connector words read naturally and may set
// mode flags; a predicate at the end of the chain either passes silently or
// reports a failure with a formatted message:
//
//	expect.Expect(5).To().Not().Be().Within(1, 3)
//	expect.Expect(m).To().Contain().Keys("foo", "bar")
//	expect.Expect(fn).To().Cause().With().PropertyValue("message", "boom")
//
// Flag connectors are Not, Deep, Any, Contain (and its spellings Contains and
// Including) and Length (Size). Everything else, such as To, Be, Have or
// Which, is sugar and returns the receiver.
//
// Expect panics with *AssertionError on failure. With(t) reports through
// t.Fatal instead, so it can be used directly from a test function. Misuse
// of the API, for example a range check on a string, is reported as
// *UsageError and is never affected by Not.
package expect
