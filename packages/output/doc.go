// Package output renders runner results.
//
// Supported output formats:
//   - Console: colored terminal output
//   - JSON: one document per run, written on Flush
//   - TAP: Test Anything Protocol version 13, written on Flush
//
// The JSON and TAP formatters accumulate results across suites and write
// them when flushed.
package output
