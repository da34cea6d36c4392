package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/chainspec/packages/core/suite"
	"github.com/abdul-hamid-achik/chainspec/packages/db"
	"github.com/abdul-hamid-achik/chainspec/packages/expect"
	"go.uber.org/zap"
)

const (
	// DefaultConcurrency is the default number of concurrent cases in parallel mode
	DefaultConcurrency = 5
)

type Runner struct {
	config *Config
	logger *zap.Logger
}

type Config struct {
	Verbose bool
	// Timeout bounds each case. Zero means no limit.
	Timeout     time.Duration
	Bail        bool
	NameFilter  string
	TagsFilter  []string
	Database    string
	Parallel    bool
	Concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger cases and steps are traced to.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Runner{
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type RunResult struct {
	File     string
	Suite    string
	Results  []*CaseResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

type CaseResult struct {
	Name       string
	Line       int
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Steps      []*StepResult
	// Error is set when the case could not run, e.g. its subject failed to load.
	Error error
}

// StepResult is one evaluated step. Then steps follow their parent with a
// greater Depth.
type StepResult struct {
	Expect  string
	Label   string
	Args    []any
	Line    int
	Depth   int
	Passed  bool
	Skipped bool
	Error   error
}

// Usage reports whether the step failed because the assertion was misused
// rather than because it did not hold.
func (s *StepResult) Usage() bool {
	return s.Error != nil && !errors.Is(s.Error, expect.ErrAssertion)
}

func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	s, err := suite.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	return r.Run(ctx, s)
}

// Run executes every selected case of s.
func (r *Runner) Run(ctx context.Context, s *suite.Suite) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		File:  s.Path,
		Suite: s.Name,
	}

	conn, err := r.open(ctx, s)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		defer conn.Close()
	}

	hasOnly := false
	for _, c := range s.Cases {
		if c.Only {
			hasOnly = true
			break
		}
	}

	var cases []*suite.Case
	for _, c := range s.Cases {
		if r.shouldRun(c, hasOnly) {
			cases = append(cases, c)
		}
	}

	r.logger.Debug("running suite",
		zap.String("suite", s.Name),
		zap.String("file", s.Path),
		zap.Int("cases", len(cases)))

	if r.config.Parallel {
		for _, cr := range r.runParallel(ctx, s, cases, conn) {
			result.Results = append(result.Results, cr)
			tally(result, cr)
		}
	} else {
		for _, c := range cases {
			cr := r.runCase(ctx, s, c, conn)
			result.Results = append(result.Results, cr)
			tally(result, cr)
			if !cr.Passed && !cr.Skipped && r.config.Bail {
				break
			}
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func tally(result *RunResult, cr *CaseResult) {
	switch {
	case cr.Skipped:
		result.Skipped++
	case cr.Passed:
		result.Passed++
	default:
		result.Failed++
	}
}

// open connects to the suite's database and runs its setup. It returns nil
// when no case reads from a database.
func (r *Runner) open(ctx context.Context, s *suite.Suite) (*db.Client, error) {
	needed := len(s.Setup) > 0
	for _, c := range s.Cases {
		if c.Source() == suite.SourceSQL {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	dsn := s.Database
	if dsn == "" {
		dsn = r.config.Database
	}
	if dsn == "" {
		return nil, fmt.Errorf("suite %q: %w", s.Name, ErrNoDatabase)
	}

	conn, err := db.NewClient(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Exec(ctx, s.Setup...); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running setup: %w", err)
	}
	return conn, nil
}

func (r *Runner) runParallel(ctx context.Context, s *suite.Suite, cases []*suite.Case, conn *db.Client) []*CaseResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*CaseResult, len(cases))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, c := range cases {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, c *suite.Case) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = r.runCase(ctx, s, c, conn)
		}(i, c)
	}

	wg.Wait()
	return results
}

func (r *Runner) shouldRun(c *suite.Case, hasOnly bool) bool {
	if hasOnly && !c.Only {
		return false
	}

	if r.config.NameFilter != "" && !matchesPattern(c.Name, r.config.NameFilter) {
		return false
	}

	if len(r.config.TagsFilter) > 0 && !c.HasTag(r.config.TagsFilter...) {
		return false
	}

	return true
}

func (r *Runner) runCase(ctx context.Context, s *suite.Suite, c *suite.Case, conn *db.Client) *CaseResult {
	start := time.Now()
	result := &CaseResult{Name: c.Name, Line: c.Line}
	log := r.logger.With(zap.String("suite", s.Name), zap.String("case", c.Name))

	if c.Skip {
		result.Skipped = true
		result.SkipReason = "marked skip"
		log.Debug("case skipped")
		return result
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	subject, err := loadSubject(ctx, s, c, conn)
	if err != nil {
		result.Error = fmt.Errorf("loading subject: %w", err)
		result.Duration = time.Since(start)
		log.Warn("case errored", zap.Error(result.Error))
		return result
	}

	root := expect.Expect(subject)
	for _, step := range c.Steps {
		result.Steps = append(result.Steps, r.runStep(ctx, log, root, step, 0)...)
	}

	result.Passed = true
	for _, step := range result.Steps {
		if !step.Passed {
			result.Passed = false
			break
		}
	}
	result.Duration = time.Since(start)

	log.Debug("case finished",
		zap.Bool("passed", result.Passed),
		zap.Int("steps", len(result.Steps)),
		zap.Duration("duration", result.Duration))
	return result
}

// runStep evaluates step against chain, followed by its then steps, which
// continue from the chain the step returned. Then steps of a failed step
// are skipped.
func (r *Runner) runStep(ctx context.Context, log *zap.Logger, chain *expect.Chain, step *suite.Step, depth int) []*StepResult {
	result := &StepResult{
		Expect: step.Expect,
		Label:  step.Label,
		Args:   step.Args,
		Line:   step.Line,
		Depth:  depth,
	}
	results := []*StepResult{result}

	next, err := evaluate(ctx, chain, step)
	if err == nil && len(step.Then) > 0 && next == nil {
		err = fmt.Errorf("%w %q: returns no chain for then steps", ErrChain, step.Expect)
	}
	if err != nil {
		result.Error = err
		log.Debug("step failed",
			zap.String("expect", step.Expect),
			zap.Int("line", step.Line),
			zap.Error(err))
		return append(results, skipped(step.Then, depth+1)...)
	}

	result.Passed = true
	for _, then := range step.Then {
		results = append(results, r.runStep(ctx, log, next, then, depth+1)...)
	}
	return results
}

func evaluate(ctx context.Context, chain *expect.Chain, step *suite.Step) (*expect.Chain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compiled, err := CompileChain(step.Expect)
	if err != nil {
		return nil, err
	}

	var next *expect.Chain
	var argErr error
	if err := expect.Recover(func() {
		next, argErr = compiled.Apply(chain, step.Args, step.Label)
	}); err != nil {
		return nil, err
	}
	if argErr != nil {
		return nil, fmt.Errorf("%s: %w", step.Expect, argErr)
	}
	return next, nil
}

func skipped(steps []*suite.Step, depth int) []*StepResult {
	var results []*StepResult
	for _, step := range steps {
		results = append(results, &StepResult{
			Expect:  step.Expect,
			Label:   step.Label,
			Args:    step.Args,
			Line:    step.Line,
			Depth:   depth,
			Skipped: true,
		})
		results = append(results, skipped(step.Then, depth+1)...)
	}
	return results
}

// Check reports every step whose expect chain or arguments cannot run,
// without evaluating anything.
func Check(s *suite.Suite) []*suite.ParseError {
	var errs []*suite.ParseError
	var walk func(steps []*suite.Step)
	walk = func(steps []*suite.Step) {
		for _, step := range steps {
			if step == nil {
				continue
			}
			compiled, err := CompileChain(step.Expect)
			if err == nil {
				err = compiled.CheckArgs(len(step.Args))
			}
			if err == nil && len(step.Then) > 0 && !compiled.Chains() {
				err = fmt.Errorf("%s returns no chain for then steps", step.Expect)
			}
			if err != nil {
				errs = append(errs, &suite.ParseError{File: s.Path, Line: step.Line, Message: err.Error()})
			}
			walk(step.Then)
		}
	}

	for _, c := range s.Cases {
		if c != nil {
			walk(c.Steps)
		}
	}
	return errs
}

// matchesPattern matches name against a pattern with an optional leading
// and/or trailing '*' wildcard.
func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	switch {
	case len(pattern) > 1 && strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(name, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}
	return name == pattern
}
