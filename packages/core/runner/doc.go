// Package runner executes chain suites.
//
// Each case loads a subject from an inline value, a JSON document, a file or
// a SQL query, then evaluates its steps. A step's expect field is a
// dot-separated chain such as "to.not.have.length.above": every word but the
// last is a connector or flag, the last is the assertion, and args are its
// arguments. Steps that return a chain (property, include, lengthOf, ...)
// may carry then steps that continue from it.
//
// Cases run sequentially by default, or concurrently with Config.Parallel.
package runner
