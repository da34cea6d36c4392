package expect

import "github.com/abdul-hamid-achik/chainspec/packages/property"

// Property asserts path resolves on the subject and returns a new chain over
// the resolved value, or over nil when it does not resolve.
func (c *Chain) Property(path string, label ...string) *Chain {
	c.helper()
	k := c.begin(label)
	info := property.Resolve(c.subject, path)

	descriptor := "property"
	if c.flags.Has(FlagDeep) {
		descriptor = "deep property"
	}
	k.assert(info.Found,
		msg("expected #{this} to have a "+descriptor+" ").Text(path),
		msg("expected #{this} to not have "+descriptor+" ").Text(path))
	return c.root(info.Value)
}

// PropertyValue asserts path resolves on the subject to a value equal to
// expected. The property must exist even when the chain is negated; Not only
// applies to the value comparison. It returns a new chain over the value.
func (c *Chain) PropertyValue(path string, expected any, label ...string) *Chain {
	c.helper()
	k := c.begin(label)
	info := property.Resolve(c.subject, path)

	if !k.assert(info.Found != k.negated(),
		msg("expected #{this} to have a property ").Text(path),
		msg("#{this} has no property ").Text(path)) {
		return c.root(info.Value)
	}

	equal := shallowEqual
	if c.flags.Has(FlagDeep) {
		equal = deepEqual
	}
	k.expected = expected
	k.actual = info.Value
	k.assert(equal(info.Value, expected),
		msg("expected #{this} to have a property ").Text(path).Append(msg(" of #{exp}, but got #{act}")),
		msg("expected #{this} to not have a property ").Text(path).Append(msg(" of #{act}")))
	return c.root(info.Value)
}
