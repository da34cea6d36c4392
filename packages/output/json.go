package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/chainspec/packages/core/runner"
	"github.com/google/uuid"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Summary  JSONSummary `json:"summary"`
	Cases    []JSONCase  `json:"cases"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary counts cases by outcome.
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type JSONCase struct {
	Name       string     `json:"name"`
	Suite      string     `json:"suite"`
	File       string     `json:"file"`
	Line       int        `json:"line,omitempty"`
	Passed     bool       `json:"passed"`
	Skipped    bool       `json:"skipped,omitempty"`
	SkipReason string     `json:"skipReason,omitempty"`
	Duration   float64    `json:"duration"`
	Error      string     `json:"error,omitempty"`
	Steps      []JSONStep `json:"steps,omitempty"`
}

type JSONStep struct {
	Expect  string `json:"expect"`
	Label   string `json:"label,omitempty"`
	Args    []any  `json:"args,omitempty"`
	Line    int    `json:"line,omitempty"`
	Depth   int    `json:"depth"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Usage   bool   `json:"usage,omitempty"`
	Message string `json:"message,omitempty"`
}

type JSONFormatter struct {
	writer io.Writer
	runID  string
	cases  []JSONCase
	now    func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		runID:  uuid.NewString(),
		cases:  make([]JSONCase, 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithRunID replaces the generated run id.
func JSONWithRunID(id string) JSONOption {
	return func(f *JSONFormatter) {
		f.runID = id
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		c := JSONCase{
			Name:       r.Name,
			Suite:      result.Suite,
			File:       result.File,
			Line:       r.Line,
			Passed:     r.Passed,
			Skipped:    r.Skipped,
			SkipReason: r.SkipReason,
			Duration:   float64(r.Duration.Milliseconds()),
		}

		if r.Error != nil {
			c.Error = r.Error.Error()
		}

		for _, s := range r.Steps {
			step := JSONStep{
				Expect:  s.Expect,
				Label:   s.Label,
				Args:    s.Args,
				Line:    s.Line,
				Depth:   s.Depth,
				Passed:  s.Passed,
				Skipped: s.Skipped,
			}
			if s.Error != nil {
				step.Message = s.Error.Error()
				step.Usage = s.Usage()
			}
			c.Steps = append(c.Steps, step)
		}

		f.cases = append(f.cases, c)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual case results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, c := range f.cases {
		switch {
		case c.Skipped:
			skipped++
		case c.Passed:
			passed++
		default:
			failed++
		}
	}

	output := JSONOutput{
		RunID: f.runID,
		Summary: JSONSummary{
			Total:   len(f.cases),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Cases:    f.cases,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     f.now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
