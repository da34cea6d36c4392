// Package format renders values and assertion messages for chainspec.
//
// It provides two pieces:
//   - Value: the text a value takes inside a failure message (quoted strings,
//     bracketed sequences, /pattern/flags regular expressions, nil)
//   - Template: a message with #{this}, #{act} and #{exp} placeholders, parsed
//     once into literal and placeholder segments and rendered against a Values set
//
// Rendering never re-scans substituted text, so values containing placeholder
// syntax or regexp replacement characters are emitted verbatim.
package format
