package runner

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/chainspec/packages/expect"
)

// ErrChain is wrapped by every error about an expect chain expression.
var ErrChain = errors.New("invalid expect chain")

type connector func(c *expect.Chain) *expect.Chain

var connectors = map[string]connector{
	"not":       (*expect.Chain).Not,
	"deep":      (*expect.Chain).Deep,
	"any":       (*expect.Chain).Any,
	"contain":   (*expect.Chain).Contain,
	"contains":  (*expect.Chain).Contains,
	"including": (*expect.Chain).Including,
	"include":   (*expect.Chain).Including,
	"includes":  (*expect.Chain).Including,
	"length":    (*expect.Chain).Length,
	"size":      (*expect.Chain).Size,
	"to":        (*expect.Chain).To,
	"be":        (*expect.Chain).Be,
	"been":      (*expect.Chain).Been,
	"is":        (*expect.Chain).Is,
	"and":       (*expect.Chain).And,
	"has":       (*expect.Chain).Has,
	"have":      (*expect.Chain).Have,
	"with":      (*expect.Chain).With,
	"that":      (*expect.Chain).That,
	"which":     (*expect.Chain).Which,
	"at":        (*expect.Chain).At,
	"of":        (*expect.Chain).Of,
	"same":      (*expect.Chain).Same,
	"a":         (*expect.Chain).A,
	"an":        (*expect.Chain).An,
	"all":       (*expect.Chain).All,
}

// predicate calls one chain method. It returns the chain the method
// returned, or nil for methods that return nothing.
type predicate struct {
	minArgs int
	maxArgs int // -1 for no limit
	chains  bool
	call    func(c *expect.Chain, args []any, label string) (*expect.Chain, error)
}

func nullary(fn func(c *expect.Chain, label ...string)) predicate {
	return predicate{call: func(c *expect.Chain, _ []any, label string) (*expect.Chain, error) {
		fn(c, label)
		return nil, nil
	}}
}

func unary(fn func(c *expect.Chain, v any, label ...string)) predicate {
	return predicate{minArgs: 1, maxArgs: 1, call: func(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
		fn(c, args[0], label)
		return nil, nil
	}}
}

func bound(fn func(c *expect.Chain, n float64, label ...string)) predicate {
	return predicate{minArgs: 1, maxArgs: 1, call: func(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
		n, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		fn(c, n, label)
		return nil, nil
	}}
}

func text(fn func(c *expect.Chain, s string, label ...string)) predicate {
	return predicate{minArgs: 1, maxArgs: 1, call: func(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
		s, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		fn(c, s, label)
		return nil, nil
	}}
}

var predicates = map[string]predicate{}

func init() {
	for _, name := range []string{"equal", "eq", "equals"} {
		predicates[name] = unary((*expect.Chain).Equal)
	}
	for _, name := range []string{"eql", "eqls"} {
		predicates[name] = unary((*expect.Chain).Eql)
	}
	predicates["true"] = nullary((*expect.Chain).True)
	predicates["false"] = nullary((*expect.Chain).False)
	predicates["nil"] = nullary((*expect.Chain).Nil)
	predicates["null"] = nullary((*expect.Chain).Nil)
	predicates["empty"] = nullary((*expect.Chain).Empty)

	for _, name := range []string{"above", "greaterthan", "gt"} {
		predicates[name] = bound((*expect.Chain).Above)
	}
	for _, name := range []string{"least", "gte"} {
		predicates[name] = bound((*expect.Chain).Least)
	}
	for _, name := range []string{"below", "lessthan", "lt"} {
		predicates[name] = bound((*expect.Chain).Below)
	}
	for _, name := range []string{"most", "lte"} {
		predicates[name] = bound((*expect.Chain).Most)
	}
	predicates["within"] = predicate{minArgs: 2, maxArgs: 2, call: callWithin}
	predicates["closeto"] = predicate{minArgs: 2, maxArgs: 2, call: callCloseTo}
	predicates["closetoint"] = predicate{minArgs: 2, maxArgs: 2, call: callCloseToInt}

	for _, name := range []string{"match", "matches"} {
		predicates[name] = text(func(c *expect.Chain, s string, label ...string) { c.Match(s, label...) })
	}
	predicates["substring"] = text((*expect.Chain).Substring)
	predicates["typeof"] = text((*expect.Chain).TypeOf)
	predicates["schema"] = unary((*expect.Chain).Schema)
	predicates["members"] = unary((*expect.Chain).Members)

	for _, name := range []string{"lengthof", "sizeof"} {
		predicates[name] = predicate{minArgs: 1, maxArgs: 1, chains: true, call: callLengthOf}
	}
	for _, name := range []string{"include", "includes", "contain", "contains"} {
		predicates[name] = predicate{minArgs: 1, maxArgs: 1, chains: true, call: func(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
			return c.Include(args[0], label), nil
		}}
	}
	predicates["property"] = predicate{minArgs: 1, maxArgs: 1, chains: true, call: callProperty}
	predicates["propertyvalue"] = predicate{minArgs: 2, maxArgs: 2, chains: true, call: callPropertyValue}
	predicates["keys"] = predicate{minArgs: 1, maxArgs: -1, call: callKeys}
	for _, name := range []string{"instanceof", "aninstanceof"} {
		predicates[name] = predicate{minArgs: 1, maxArgs: 1, chains: true, call: callInstanceOf}
	}
}

func callWithin(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	start, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	finish, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	c.Within(start, finish, label)
	return nil, nil
}

func callCloseTo(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	expected, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	delta, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	c.CloseTo(expected, delta, label)
	return nil, nil
}

func callCloseToInt(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	expected, err := toInt(args[0])
	if err != nil {
		return nil, err
	}
	delta, err := toInt(args[1])
	if err != nil {
		return nil, err
	}
	c.CloseToInt(int64(expected), int64(delta), label)
	return nil, nil
}

func callLengthOf(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	n, err := toInt(args[0])
	if err != nil {
		return nil, err
	}
	return c.LengthOf(n, label), nil
}

func callProperty(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	path, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	return c.Property(path, label), nil
}

func callPropertyValue(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	path, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	return c.PropertyValue(path, args[1], label), nil
}

// callKeys accepts keys as separate arguments, as one list, or as one map
// whose keys are used.
func callKeys(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	if len(args) == 1 {
		switch v := args[0].(type) {
		case map[string]any:
			c.KeysFrom(v, label)
			return nil, nil
		case []any:
			args = v
		}
	}

	keys := make([]string, len(args))
	for i, arg := range args {
		s, err := toString(arg)
		if err != nil {
			return nil, err
		}
		keys[i] = s
	}
	c.KeysOf(keys, label)
	return nil, nil
}

// typeNames are the types instanceOf accepts by name.
var typeNames = map[string]reflect.Type{
	"string":  reflect.TypeOf((*string)(nil)).Elem(),
	"bool":    reflect.TypeOf((*bool)(nil)).Elem(),
	"int":     reflect.TypeOf((*int)(nil)).Elem(),
	"int64":   reflect.TypeOf((*int64)(nil)).Elem(),
	"float64": reflect.TypeOf((*float64)(nil)).Elem(),
	"list":    reflect.TypeOf((*[]any)(nil)).Elem(),
	"map":     reflect.TypeOf((*map[string]any)(nil)).Elem(),
	"error":   reflect.TypeOf((*error)(nil)).Elem(),
}

func callInstanceOf(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	if args[0] == nil {
		return c.InstanceOf(nil, label), nil
	}
	name, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	t, ok := typeNames[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %q (want one of %s)", name, strings.Join(TypeNames(), ", "))
	}
	return c.InstanceOf(t, label), nil
}

// TypeNames lists the type names instanceOf accepts.
func TypeNames() []string {
	names := make([]string, 0, len(typeNames))
	for name := range typeNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain is a parsed expect expression such as "to.not.have.length.above".
type Chain struct {
	Expr       string
	connectors []connector
	predicate  predicate
	name       string
}

// CompileChain parses expr and checks every word is known.
func CompileChain(expr string) (*Chain, error) {
	words := strings.Split(strings.TrimSpace(expr), ".")
	if len(words) == 0 || words[0] == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrChain)
	}

	compiled := &Chain{Expr: expr}
	for _, word := range words[:len(words)-1] {
		conn, ok := connectors[strings.ToLower(word)]
		if !ok {
			return nil, fmt.Errorf("%w %q: unknown word %q", ErrChain, expr, word)
		}
		compiled.connectors = append(compiled.connectors, conn)
	}

	last := words[len(words)-1]
	pred, ok := predicates[strings.ToLower(last)]
	if !ok {
		if _, isConnector := connectors[strings.ToLower(last)]; isConnector {
			return nil, fmt.Errorf("%w %q: must end with an assertion, not %q", ErrChain, expr, last)
		}
		return nil, fmt.Errorf("%w %q: unknown assertion %q", ErrChain, expr, last)
	}
	compiled.predicate = pred
	compiled.name = last
	return compiled, nil
}

// Chains reports whether the assertion returns a chain that then steps
// can continue from.
func (ch *Chain) Chains() bool {
	return ch.predicate.chains
}

// CheckArgs reports whether n arguments suit the chain's assertion.
func (ch *Chain) CheckArgs(n int) error {
	p := ch.predicate
	switch {
	case n < p.minArgs:
		return fmt.Errorf("%s needs %s, got %d", ch.name, plural(p.minArgs, "argument"), n)
	case p.maxArgs >= 0 && n > p.maxArgs:
		return fmt.Errorf("%s takes at most %s, got %d", ch.name, plural(p.maxArgs, "argument"), n)
	}
	return nil
}

// Apply runs the chain on c. Failed assertions panic the way expect does;
// argument problems are returned.
func (ch *Chain) Apply(c *expect.Chain, args []any, label string) (*expect.Chain, error) {
	if err := ch.CheckArgs(len(args)); err != nil {
		return nil, err
	}
	for _, conn := range ch.connectors {
		c = conn(c)
	}
	return ch.predicate.call(c, args, label)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func toFloat(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("expected a number, got %v", v)
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("expected a whole number, got %v", v)
	}
	return int(f), nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %v", v)
	}
	return s, nil
}
