// Package property resolves dot and bracket paths against Go values.
//
// A path is a dot-separated list of segments. Each segment is an optional
// name followed by any number of bracketed indices:
//
//	green.tea
//	teas[1]
//	teas[2].tea
//	[0][1]
//
// Names are looked up through an ordered list of accessors (getter methods,
// boolean Is methods, bare methods, struct fields, map entries, error
// messages and lengths). Indices select slice and array positions or map keys.
//
// Resolution never panics and never returns an error: a path that cannot be
// followed yields NotFound.
package property
