package expect

import "strings"

// Flags is the set of modes carried by a chain.
type Flags uint8

const (
	// FlagNot negates the next predicate.
	FlagNot Flags = 1 << iota
	// FlagDeep switches equality and property checks to deep mode.
	FlagDeep
	// FlagAny makes key checks pass when any key is present.
	FlagAny
	// FlagContains relaxes key and member checks to containment.
	FlagContains
	// FlagLength makes range predicates compare the subject's length.
	FlagLength
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagNot, "not"},
	{FlagDeep, "deep"},
	{FlagAny, "any"},
	{FlagContains, "contains"},
	{FlagLength, "length"},
}

// Has reports whether every flag in flag is set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// With returns f with flag added.
func (f Flags) With(flag Flags) Flags {
	return f | flag
}

func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
