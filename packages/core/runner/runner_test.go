package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/chainspec/packages/capture"
	"github.com/abdul-hamid-achik/chainspec/packages/core/suite"
	"github.com/abdul-hamid-achik/chainspec/packages/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parseSuite(t *testing.T, content string) *suite.Suite {
	t.Helper()
	s, err := suite.Parse([]byte(content), "test.chain.yaml")
	require.NoError(t, err)
	return s
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r)
		assert.NotNil(t, r.config)
		assert.NotNil(t, r.logger)
	})

	t.Run("with custom config", func(t *testing.T) {
		cfg := &Config{
			Verbose:     true,
			Parallel:    true,
			Concurrency: 10,
			Timeout:     time.Second,
		}
		logger := zap.NewExample()
		r := NewRunner(cfg, WithLogger(logger))
		assert.True(t, r.config.Verbose)
		assert.Equal(t, 10, r.config.Concurrency)
		assert.Same(t, logger, r.logger)
	})

	t.Run("nil logger keeps the default", func(t *testing.T) {
		r := NewRunner(nil, WithLogger(nil))
		assert.NotNil(t, r.logger)
	})
}

const inventorySuite = `name: inventory
database: ":memory:"
setup:
  - CREATE TABLE items (id INTEGER, name TEXT, qty INTEGER)
  - INSERT INTO items VALUES (1, 'tea', 3), (2, 'cup', 0)
cases:
  - name: inline list
    value: [1, 2, 3]
    steps:
      - expect: to.have.lengthOf
        args: 3
      - expect: to.include
        args: 2
      - expect: to.not.include
        args: 4
      - expect: to.have.length.above
        args: 2
  - name: json document
    json: '{"order": {"id": 7, "lines": [{"sku": "tea"}]}}'
    select: order
    steps:
      - expect: to.have.keys
        args: [id, lines]
      - expect: to.have.property
        args: lines[0].sku
        then:
          - expect: to.equal
            args: tea
  - name: json file
    file: data/order.json
    select: lines[0].sku
    steps:
      - expect: to.match
        args: ^te
  - name: yaml file
    file: data/order.yaml
    steps:
      - expect: to.have.property
        args: total
        then:
          - expect: to.be.closeTo
            args: [10, 0.5]
  - name: rows
    sql: SELECT id, name, qty FROM items ORDER BY id
    steps:
      - expect: to.have.lengthOf
        args: 2
      - expect: to.deep.include
        args: [{id: 2, name: cup, qty: 0}]
  - name: selected row
    sql: SELECT name FROM items WHERE qty > 0
    select: "[0].name"
    steps:
      - expect: to.equal
        args: tea
`

func TestRunner_RunFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data/order.json", `{"lines": [{"sku": "tea"}], "total": 9.8}`)
	writeFile(t, dir, "data/order.yaml", "total: 9.8\n")
	path := writeFile(t, dir, "inventory.chain.yaml", inventorySuite)

	r := NewRunner(nil)
	result, err := r.RunFile(context.Background(), path)
	require.NoError(t, err)

	for _, cr := range result.Results {
		assert.NoError(t, cr.Error, cr.Name)
		for _, step := range cr.Steps {
			assert.True(t, step.Passed, "%s: %s: %v", cr.Name, step.Expect, step.Error)
		}
	}
	assert.Equal(t, "inventory", result.Suite)
	assert.Equal(t, path, result.File)
	assert.Equal(t, 6, result.Passed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.Skipped)
}

func TestRunner_RunFile_ParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.chain.yaml", "name: bad\n")

	_, err := NewRunner(nil).RunFile(context.Background(), path)
	require.Error(t, err)

	var pe *suite.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestRunner_Failures(t *testing.T) {
	s := parseSuite(t, `name: failures
cases:
  - name: wrong count
    value: 3
    steps:
      - expect: to.equal
        args: 4
        label: count
      - expect: to.be.above
        args: 2
  - name: misuse
    value: text
    steps:
      - expect: to.be.above
        args: 1
  - name: broken parent
    value: {a: 1}
    steps:
      - expect: to.have.property
        args: b
        then:
          - expect: to.equal
            args: 1
            then:
              - expect: to.be.true
`)

	result, err := NewRunner(nil).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Passed)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Results, 3)

	count := result.Results[0]
	require.Len(t, count.Steps, 2)
	assert.False(t, count.Steps[0].Passed)
	assert.EqualError(t, count.Steps[0].Error, "count: expected 3 to equal 4")
	assert.ErrorIs(t, count.Steps[0].Error, expect.ErrAssertion)
	assert.False(t, count.Steps[0].Usage())
	assert.True(t, count.Steps[1].Passed, "later steps still run")

	misuse := result.Results[1].Steps[0]
	assert.ErrorIs(t, misuse.Error, expect.ErrUsage)
	assert.True(t, misuse.Usage())

	broken := result.Results[2].Steps
	require.Len(t, broken, 3)
	assert.ErrorIs(t, broken[0].Error, expect.ErrAssertion)
	assert.True(t, broken[1].Skipped)
	assert.Equal(t, 1, broken[1].Depth)
	assert.True(t, broken[2].Skipped)
	assert.Equal(t, 2, broken[2].Depth)
}

func TestRunner_ThenSteps(t *testing.T) {
	s := parseSuite(t, `name: then
cases:
  - name: nested
    value: {teas: [chai, matcha, oolong]}
    steps:
      - expect: to.have.property
        args: teas
        then:
          - expect: to.have.lengthOf
            args: 3
            then:
              - expect: to.include
                args: matcha
          - expect: to.be.an.instanceOf
            args: list
  - name: nothing to continue
    value: 1
    steps:
      - expect: to.equal
        args: 1
        then:
          - expect: to.equal
            args: 1
`)

	result, err := NewRunner(nil).Run(context.Background(), s)
	require.NoError(t, err)

	nested := result.Results[0]
	assert.True(t, nested.Passed)
	depths := make([]int, len(nested.Steps))
	for i, step := range nested.Steps {
		depths[i] = step.Depth
	}
	assert.Equal(t, []int{0, 1, 2, 1}, depths)

	dangling := result.Results[1]
	assert.False(t, dangling.Passed)
	assert.ErrorIs(t, dangling.Steps[0].Error, ErrChain)
	assert.True(t, dangling.Steps[1].Skipped)
}

func TestRunner_ChainAndArgumentErrors(t *testing.T) {
	s := parseSuite(t, `name: errors
cases:
  - name: unknown word
    value: 1
    steps:
      - expect: to.frobnicate
  - name: bad argument
    value: 1
    steps:
      - expect: to.be.above
        args: lots
`)

	result, err := NewRunner(nil).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)

	assert.ErrorIs(t, result.Results[0].Steps[0].Error, ErrChain)
	assert.EqualError(t, result.Results[1].Steps[0].Error, "to.be.above: expected a number, got lots")
	assert.True(t, result.Results[1].Steps[0].Usage())
}

func TestRunner_SubjectErrors(t *testing.T) {
	t.Run("missing selection", func(t *testing.T) {
		s := parseSuite(t, `name: s
cases:
  - name: a
    json: '{"a": 1}'
    select: b
    steps:
      - expect: to.be.nil
`)
		result, err := NewRunner(nil).Run(context.Background(), s)
		require.NoError(t, err)
		require.Len(t, result.Results, 1)
		assert.ErrorIs(t, result.Results[0].Error, capture.ErrNotFound)
		assert.Empty(t, result.Results[0].Steps)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("invalid json", func(t *testing.T) {
		s := parseSuite(t, "name: s\ncases:\n  - name: a\n    json: '{'\n    steps: [{expect: to.be.nil}]\n")
		result, err := NewRunner(nil).Run(context.Background(), s)
		require.NoError(t, err)
		assert.ErrorIs(t, result.Results[0].Error, capture.ErrInvalidJSON)
	})

	t.Run("missing file", func(t *testing.T) {
		s := parseSuite(t, "name: s\ncases:\n  - name: a\n    file: nope.json\n    steps: [{expect: to.be.nil}]\n")
		result, err := NewRunner(nil).Run(context.Background(), s)
		require.NoError(t, err)
		assert.ErrorIs(t, result.Results[0].Error, os.ErrNotExist)
	})

	t.Run("text file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "greeting.txt", "hello world")
		path := writeFile(t, dir, "s.chain.yaml", "name: s\ncases:\n  - name: a\n    file: greeting.txt\n    steps: [{expect: to.have.substring, args: world}]\n")

		result, err := NewRunner(nil).RunFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Passed)
	})
}

func TestRunner_Database(t *testing.T) {
	sqlSuite := "name: s\ncases:\n  - name: a\n    sql: SELECT 1 AS one\n    steps: [{expect: to.have.lengthOf, args: 1}]\n"

	t.Run("no database", func(t *testing.T) {
		_, err := NewRunner(nil).Run(context.Background(), parseSuite(t, sqlSuite))
		assert.ErrorIs(t, err, ErrNoDatabase)
	})

	t.Run("database from config", func(t *testing.T) {
		r := NewRunner(&Config{Database: ":memory:"})
		result, err := r.Run(context.Background(), parseSuite(t, sqlSuite))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Passed)
	})

	t.Run("failing setup", func(t *testing.T) {
		s := parseSuite(t, "name: s\ndatabase: \":memory:\"\nsetup: [NOT SQL]\n"+strings.TrimPrefix(sqlSuite, "name: s\n"))
		_, err := NewRunner(nil).Run(context.Background(), s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "running setup")
	})
}

const filterSuite = `name: filters
cases:
  - name: login ok
    tags: [auth, smoke]
    value: 1
    steps: [{expect: to.equal, args: 1}]
  - name: login fails
    tags: [auth]
    value: 1
    steps: [{expect: to.equal, args: 2}]
  - name: checkout
    tags: [smoke]
    value: 1
    steps: [{expect: to.equal, args: 1}]
  - name: pending
    skip: true
    value: 1
    steps: [{expect: to.equal, args: 1}]
`

func resultNames(result *RunResult) []string {
	names := make([]string, len(result.Results))
	for i, cr := range result.Results {
		names[i] = cr.Name
	}
	return names
}

func TestRunner_Filters(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		want    []string
		passed  int
		failed  int
		skipped int
	}{
		{
			name:    "everything",
			config:  &Config{},
			want:    []string{"login ok", "login fails", "checkout", "pending"},
			passed:  2,
			failed:  1,
			skipped: 1,
		},
		{
			name:   "name prefix",
			config: &Config{NameFilter: "login*"},
			want:   []string{"login ok", "login fails"},
			passed: 1,
			failed: 1,
		},
		{
			name:   "tags",
			config: &Config{TagsFilter: []string{"smoke"}},
			want:   []string{"login ok", "checkout"},
			passed: 2,
		},
		{
			name:   "bail",
			config: &Config{Bail: true},
			want:   []string{"login ok", "login fails"},
			passed: 1,
			failed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewRunner(tt.config).Run(context.Background(), parseSuite(t, filterSuite))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resultNames(result))
			assert.Equal(t, tt.passed, result.Passed)
			assert.Equal(t, tt.failed, result.Failed)
			assert.Equal(t, tt.skipped, result.Skipped)
		})
	}
}

func TestRunner_Skip(t *testing.T) {
	result, err := NewRunner(&Config{NameFilter: "pending"}).Run(context.Background(), parseSuite(t, filterSuite))
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Skipped)
	assert.Equal(t, "marked skip", result.Results[0].SkipReason)
	assert.Empty(t, result.Results[0].Steps)
}

func TestRunner_Only(t *testing.T) {
	content := strings.Replace(filterSuite, "  - name: checkout\n", "  - name: checkout\n    only: true\n", 1)

	result, err := NewRunner(nil).Run(context.Background(), parseSuite(t, content))
	require.NoError(t, err)
	assert.Equal(t, []string{"checkout"}, resultNames(result))
}

func TestRunner_Parallel(t *testing.T) {
	var b strings.Builder
	b.WriteString("name: parallel\ncases:\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "  - name: case %d\n    value: %d\n    steps: [{expect: to.be.below, args: 15}]\n", i, i)
	}

	r := NewRunner(&Config{Parallel: true, Concurrency: 4})
	result, err := r.Run(context.Background(), parseSuite(t, b.String()))
	require.NoError(t, err)

	require.Len(t, result.Results, 20)
	for i, cr := range result.Results {
		assert.Equal(t, fmt.Sprintf("case %d", i), cr.Name)
	}
	assert.Equal(t, 15, result.Passed)
	assert.Equal(t, 5, result.Failed)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewRunner(nil).Run(ctx, parseSuite(t, filterSuite))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Passed)
	assert.ErrorIs(t, result.Results[0].Steps[0].Error, context.Canceled)
}

func TestRunner_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewRunner(nil, WithLogger(zap.New(core)))

	_, err := r.Run(context.Background(), parseSuite(t, filterSuite))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("running suite").Len())
	assert.Equal(t, 3, logs.FilterMessage("case finished").Len())
	assert.Equal(t, 1, logs.FilterMessage("case skipped").Len())

	failed := logs.FilterMessage("step failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "login fails", failed[0].ContextMap()["case"])
	assert.Equal(t, "to.equal", failed[0].ContextMap()["expect"])
}

func TestCheck(t *testing.T) {
	s := parseSuite(t, `name: check
cases:
  - name: a
    value: 1
    steps:
      - expect: to.equal
        args: 1
      - expect: to.be.nicely
      - expect: to.be.within
        args: 1
      - expect: to.be
      - expect: to.equal
        args: 1
        then:
          - expect: to.be.true
      - expect: to.have.property
        args: a
        then:
          - expect: to.be.shiny
`)

	errs := Check(s)
	require.Len(t, errs, 5)
	assert.Equal(t, 8, errs[0].Line)
	assert.Contains(t, errs[0].Message, `unknown assertion "nicely"`)
	assert.Equal(t, "within needs 2 arguments, got 1", errs[1].Message)
	assert.Contains(t, errs[2].Message, `must end with an assertion, not "be"`)
	assert.Equal(t, "to.equal returns no chain for then steps", errs[3].Message)
	assert.Contains(t, errs[4].Message, `unknown assertion "shiny"`)
	for _, err := range errs {
		assert.Equal(t, "test.chain.yaml", err.File)
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"login ok", "", true},
		{"login ok", "login ok", true},
		{"login ok", "login", false},
		{"login ok", "login*", true},
		{"login ok", "*ok", true},
		{"login ok", "*in o*", true},
		{"login ok", "*fail*", false},
		{"login ok", "*", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPattern(tt.name, tt.pattern))
		})
	}
}
