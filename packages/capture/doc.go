// Package capture selects values out of JSON documents.
//
// Paths use gjson syntax. Bracket indices such as items[0].tags[1] are
// accepted and rewritten to the dot form gjson expects. Selected values are
// decoded to plain Go values: map[string]any, []any, float64, string, bool
// and nil.
package capture
