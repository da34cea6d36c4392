package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/chainspec/packages/core/runner"
	"github.com/abdul-hamid-achik/chainspec/packages/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *runner.RunResult {
	return &runner.RunResult{
		File:     "orders.chain.yaml",
		Suite:    "orders",
		Duration: 12 * time.Millisecond,
		Passed:   1,
		Failed:   2,
		Skipped:  1,
		Results: []*runner.CaseResult{
			{
				Name:     "totals",
				Line:     7,
				Passed:   true,
				Duration: 3 * time.Millisecond,
				Steps: []*runner.StepResult{
					{Expect: "to.equal", Args: []any{"tea"}, Line: 9, Passed: true},
				},
			},
			{
				Name: "count",
				Line: 12,
				Steps: []*runner.StepResult{
					{Expect: "to.equal", Args: []any{4}, Label: "count", Line: 15, Error: &expect.AssertionError{Message: "count: expected 3 to equal 4"}},
					{Expect: "to.be.above", Args: []any{2}, Line: 18, Passed: true},
					{Expect: "to.be.true", Line: 20, Depth: 1, Skipped: true},
				},
			},
			{
				Name:  "broken",
				Line:  22,
				Error: errors.New("loading subject: path not found: b"),
			},
			{
				Name:       "pending",
				Line:       27,
				Skipped:    true,
				SkipReason: "marked skip",
			},
		},
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Running: orders (orders.chain.yaml)")
	assert.Contains(t, out, "  ✓ totals (3ms)\n")
	assert.Contains(t, out, "  ✗ count (0ms)\n")
	assert.Contains(t, out, "    → to.equal(4)\n      count: expected 3 to equal 4\n")
	assert.Contains(t, out, "  x broken (loading subject: path not found: b)\n")
	assert.Contains(t, out, "  - pending (marked skip)\n")
	assert.Contains(t, out, "Cases: 1 passed, 2 failed, 1 skipped, 4 total\n")
	assert.Contains(t, out, "Time:  12ms\n")
	assert.NotContains(t, out, "to.be.above")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, `    ✓ to.equal("tea")`+"\n")
	assert.Contains(t, out, "    ✓ to.be.above(2)\n")
	assert.Contains(t, out, "      - to.be.true\n")
}

func TestConsoleFormatter_HeaderAndError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatHeader("1.2.3")
	f.FormatError(errors.New("boom"))

	assert.Equal(t, "chainspec 1.2.3\nError: boom\n", buf.String())
}

func TestFormatArgs(t *testing.T) {
	assert.Equal(t, `1, "two", [3]`, formatArgs([]any{1, "two", []any{3}}, 100))
	assert.Equal(t, `"abc...`, formatArgs([]any{"abcdef"}, 4))
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf), JSONWithRunID("run-1"))
	f.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(40*time.Millisecond))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, JSONSummary{Total: 4, Passed: 1, Failed: 2, Skipped: 1}, out.Summary)
	assert.Equal(t, float64(40), out.Duration)
	assert.Equal(t, "2024-05-01T12:00:00Z", out.Time)
	require.Len(t, out.Cases, 4)

	count := out.Cases[1]
	assert.Equal(t, "orders", count.Suite)
	assert.Equal(t, "orders.chain.yaml", count.File)
	assert.Equal(t, 12, count.Line)
	require.Len(t, count.Steps, 3)
	assert.Equal(t, "count: expected 3 to equal 4", count.Steps[0].Message)
	assert.False(t, count.Steps[0].Usage)
	assert.Equal(t, []any{float64(4)}, count.Steps[0].Args)
	assert.True(t, count.Steps[2].Skipped)
	assert.Equal(t, 1, count.Steps[2].Depth)

	assert.Equal(t, "loading subject: path not found: b", out.Cases[2].Error)
	assert.Equal(t, "marked skip", out.Cases[3].SkipReason)
}

func TestJSONFormatter_GeneratesRunID(t *testing.T) {
	a, b := NewJSONFormatter(), NewJSONFormatter()
	assert.Len(t, a.runID, 36)
	assert.NotEqual(t, a.runID, b.runID)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatHeader("1.2.3")
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(12*time.Millisecond))

	want := `TAP version 13
1..4
ok 1 - totals
not ok 2 - count
  ---
  failures:
    - "to.equal: count: expected 3 to equal 4"
  ...
not ok 3 - broken
  ---
  message: "loading subject: path not found: b"
  severity: error
  ...
ok 4 - pending # SKIP marked skip
# time 12ms
`
	assert.Equal(t, want, buf.String())
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: \"b\""`, escapeYAML(`a: "b"`))
	assert.Equal(t, `"one\ntwo"`, escapeYAML("one\ntwo"))
}
