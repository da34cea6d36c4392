package expect

import (
	"sync"

	"github.com/abdul-hamid-achik/chainspec/packages/format"
)

// TestingT is the part of *testing.T that failures are reported through.
type TestingT interface {
	Helper()
	Fatal(args ...any)
}

// Chain is an immutable subject plus a set of mode flags. Connector methods
// return the receiver or a sibling chain over the same subject; siblings are
// built on first use and shared, so Not().Deep() and Deep().Not() are the
// same chain.
type Chain struct {
	subject  any
	flags    Flags
	reporter TestingT
	siblings *registry
}

type registry struct {
	mu     sync.Mutex
	chains map[Flags]*Chain
}

func newChain(subject any, reporter TestingT) *Chain {
	c := &Chain{
		subject:  subject,
		reporter: reporter,
		siblings: &registry{chains: make(map[Flags]*Chain)},
	}
	c.siblings.chains[0] = c
	return c
}

// Expect returns a chain over v with no flags set. Failures panic with
// *AssertionError or *UsageError.
func Expect(v any) *Chain {
	return newChain(v, nil)
}

// Fail unconditionally raises an AssertionError carrying message.
func Fail(message string) {
	panic(&AssertionError{Message: message})
}

// Expecter creates chains that report failures through a TestingT.
type Expecter struct {
	t TestingT
}

// With returns an Expecter reporting through t.
func With(t TestingT) *Expecter {
	return &Expecter{t: t}
}

// Expect returns a chain over v that reports through the Expecter's TestingT.
func (e *Expecter) Expect(v any) *Chain {
	return newChain(v, e.t)
}

// Fail reports message as a failure.
func (e *Expecter) Fail(message string) {
	e.t.Helper()
	e.t.Fatal(message)
}

// Subject returns the value the chain wraps.
func (c *Chain) Subject() any {
	return c.subject
}

// Flags returns the chain's mode flags.
func (c *Chain) Flags() Flags {
	return c.flags
}

func (c *Chain) derive(flag Flags) *Chain {
	flags := c.flags.With(flag)
	if flags == c.flags {
		return c
	}

	r := c.siblings
	r.mu.Lock()
	defer r.mu.Unlock()

	if sibling, ok := r.chains[flags]; ok {
		return sibling
	}
	sibling := &Chain{
		subject:  c.subject,
		flags:    flags,
		reporter: c.reporter,
		siblings: r,
	}
	r.chains[flags] = sibling
	return sibling
}

// root starts a new chain over v that reports the same way as c.
func (c *Chain) root(v any) *Chain {
	return newChain(v, c.reporter)
}

// rootWith starts a new chain over v with a single flag set.
func (c *Chain) rootWith(v any, flag Flags) *Chain {
	return c.root(v).derive(flag)
}

// Not negates the next predicate.
func (c *Chain) Not() *Chain { return c.derive(FlagNot) }

// Deep switches Equal and Property to deep mode.
func (c *Chain) Deep() *Chain { return c.derive(FlagDeep) }

// Any makes Keys pass when at least one key is present.
func (c *Chain) Any() *Chain { return c.derive(FlagAny) }

// Contain relaxes Keys and Members to containment.
func (c *Chain) Contain() *Chain { return c.derive(FlagContains) }

// Contains is Contain.
func (c *Chain) Contains() *Chain { return c.derive(FlagContains) }

// Including is Contain.
func (c *Chain) Including() *Chain { return c.derive(FlagContains) }

// Length makes range predicates compare the subject's length.
func (c *Chain) Length() *Chain { return c.derive(FlagLength) }

// Size is Length.
func (c *Chain) Size() *Chain { return c.derive(FlagLength) }

func (c *Chain) To() *Chain { return c }
func (c *Chain) Be() *Chain { return c }
func (c *Chain) Been() *Chain { return c }
func (c *Chain) Is() *Chain { return c }
func (c *Chain) And() *Chain { return c }
func (c *Chain) Has() *Chain { return c }
func (c *Chain) Have() *Chain { return c }
func (c *Chain) With() *Chain { return c }
func (c *Chain) That() *Chain { return c }
func (c *Chain) Which() *Chain { return c }
func (c *Chain) At() *Chain { return c }
func (c *Chain) Of() *Chain { return c }
func (c *Chain) Same() *Chain { return c }
func (c *Chain) A() *Chain { return c }
func (c *Chain) An() *Chain { return c }
func (c *Chain) All() *Chain { return c }

func (c *Chain) helper() {
	if c.reporter != nil {
		c.reporter.Helper()
	}
}

func (c *Chain) report(err error) {
	if c.reporter == nil {
		panic(err)
	}
	c.reporter.Helper()
	c.reporter.Fatal(err.Error())
}

// call holds the per-predicate state a failure message is rendered from.
type call struct {
	chain    *Chain
	label    string
	actual   any
	expected any
}

func (c *Chain) begin(label []string) *call {
	k := &call{chain: c}
	for _, l := range label {
		if l != "" {
			k.label = l
			break
		}
	}
	return k
}

func (k *call) values() format.Values {
	return format.Values{
		Subject:  k.chain.subject,
		Actual:   k.actual,
		Expected: k.expected,
		Label:    k.label,
	}
}

func (k *call) negated() bool {
	return k.chain.flags.Has(FlagNot)
}

// assert reports a failure unless ok, inverted when the chain is negated,
// holds. It returns whether the assertion passed.
func (k *call) assert(ok bool, positive, negative format.Template) bool {
	k.chain.helper()
	negate := k.negated()
	if ok != negate {
		return true
	}
	tmpl := positive
	if negate {
		tmpl = negative
	}
	k.chain.report(&AssertionError{Message: tmpl.Render(k.values())})
	return false
}

// usage reports a misuse regardless of negation.
func (k *call) usage(tmpl format.Template) {
	k.chain.helper()
	k.chain.report(&UsageError{Message: tmpl.Render(k.values())})
}

func msg(text string) format.Template {
	return format.Parse(text)
}
