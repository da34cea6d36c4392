package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/chainspec/packages/core/config"
	"github.com/abdul-hamid-achik/chainspec/packages/core/runner"
	"github.com/abdul-hamid-achik/chainspec/packages/core/suite"
	"github.com/abdul-hamid-achik/chainspec/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run [file|directory]...",
	Short: "Run chain suites",
	Long: `Run the cases defined in .chain.yaml suites. Directories are searched
recursively for files matching the configured include patterns.

Examples:
  chainspec run
  chainspec run orders.chain.yaml
  chainspec run ./suites/ --tags smoke
  chainspec run ./suites/ --name "login*" --bail
  chainspec run ./suites/ -o json --output-file results.json`,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	nameFlag        string
	tagsFlag        string
	verboseFlag     int
	quietFlag       bool
	bailFlag        bool
	timeoutFlag     string
	noColorFlag     bool
	dryRunFlag      bool
	outputFlag      string
	outputFileFlag  string
	databaseFlag    string
	parallelFlag    bool
	concurrencyFlag int
	watchFlag       bool
)

func init() {
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only cases matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("CHAINSPEC_TAGS", ""), "Run only cases with specified tags (comma-separated) (env: CHAINSPEC_TAGS)")

	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output, listing every step")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("CHAINSPEC_QUIET", false), "Suppress the header and color (env: CHAINSPEC_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("CHAINSPEC_NO_COLOR", false), "Disable colored output (env: CHAINSPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("CHAINSPEC_OUTPUT", "console"), "Output format: console, json, tap (env: CHAINSPEC_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("CHAINSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: CHAINSPEC_OUTPUT_FILE)")

	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("CHAINSPEC_BAIL", false), "Stop on first failure (env: CHAINSPEC_BAIL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("CHAINSPEC_TIMEOUT", "30s"), "Per-case timeout (e.g., 30s, 1m) (env: CHAINSPEC_TIMEOUT)")
	runCmd.Flags().StringVar(&databaseFlag, "database", getEnvString("CHAINSPEC_DATABASE", ""), "Database for suites that do not name one (env: CHAINSPEC_DATABASE)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show which suites would run without running them")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("CHAINSPEC_PARALLEL", false), "Run the cases of each suite concurrently (env: CHAINSPEC_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("CHAINSPEC_CONCURRENCY", runner.DefaultConcurrency), "Number of concurrent cases in parallel mode (env: CHAINSPEC_CONCURRENCY)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch suites for changes and re-run them")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func newFormatter(reporter string, w io.Writer, verbose, noColor bool) Formatter {
	switch strings.ToLower(reporter) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w))
	default:
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(verbose),
			output.WithNoColor(noColor),
		)
	}
}

// flagSet reports whether the user chose a value for name, on the command
// line or through envKey.
func flagSet(cmd *cobra.Command, name, envKey string) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	return envKey != "" && os.Getenv(envKey) != ""
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// loadRunConfig reads the config file and overlays the flags the user set.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	cli := &config.Config{}
	if flagSet(cmd, "output", "CHAINSPEC_OUTPUT") {
		cli.Reporter = outputFlag
	}
	if flagSet(cmd, "output-file", "CHAINSPEC_OUTPUT_FILE") {
		cli.OutputFile = outputFileFlag
	}
	if flagSet(cmd, "tags", "CHAINSPEC_TAGS") {
		cli.Tags = splitList(tagsFlag)
	}
	if flagSet(cmd, "database", "CHAINSPEC_DATABASE") {
		cli.Database = databaseFlag
	}
	if flagSet(cmd, "timeout", "CHAINSPEC_TIMEOUT") {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		cli.Timeout = int(timeout.Milliseconds())
	}
	if flagSet(cmd, "bail", "CHAINSPEC_BAIL") {
		cli.Bail = config.BoolPtr(bailFlag)
	}
	if verboseFlag > 0 {
		cli.Verbose = config.BoolPtr(true)
	}
	if flagSet(cmd, "no-color", "CHAINSPEC_NO_COLOR") || quietFlag {
		cli.NoColor = config.BoolPtr(noColorFlag || quietFlag)
	}

	cfg := fileConfig.Merge(cli)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	out := cmd.OutOrStdout()
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return exitWith(ExitConfigError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	makeFormatter := func() Formatter {
		return newFormatter(cfg.Reporter, out, cfg.GetVerbose(), cfg.GetNoColor())
	}
	formatter := makeFormatter()
	if !quietFlag {
		formatter.FormatHeader(version)
	}

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := collectFiles(args, cfg.Include)
	if err != nil {
		formatter.FormatError(err)
		return exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		err := fmt.Errorf("no suite files found (include: %s)", strings.Join(cfg.Include, ", "))
		formatter.FormatError(err)
		return exitWith(ExitUsageError, err)
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	r := runner.NewRunner(&runner.Config{
		Verbose:     cfg.GetVerbose(),
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
		Bail:        cfg.GetBail(),
		NameFilter:  nameFlag,
		TagsFilter:  cfg.Tags,
		Database:    cfg.Database,
		Parallel:    parallelFlag,
		Concurrency: concurrencyFlag,
	}, runner.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runAll := func(formatter Formatter) (failed, parseErrors int, duration time.Duration) {
		start := time.Now()
		for _, file := range files {
			if dryRunFlag {
				fmt.Fprintf(out, "Would run: %s\n", file)
				continue
			}

			result, err := r.RunFile(ctx, file)
			if err != nil {
				formatter.FormatError(fmt.Errorf("%s: %w", file, err))
				var pe *suite.ParseError
				if errors.As(err, &pe) {
					parseErrors++
				} else {
					failed++
				}
				if cfg.GetBail() {
					break
				}
				continue
			}

			formatter.FormatResult(result)
			failed += result.Failed
			if cfg.GetBail() && result.Failed > 0 {
				break
			}
		}
		duration = time.Since(start)

		if flushable, ok := formatter.(Flushable); ok {
			if err := flushable.Flush(duration); err != nil {
				formatter.FormatError(fmt.Errorf("error writing output: %w", err))
			}
		}
		return failed, parseErrors, duration
	}

	failed, parseErrors, _ := runAll(formatter)

	if !watchFlag {
		switch {
		case failed > 0:
			return exitWith(ExitTestFailure, nil)
		case parseErrors > 0:
			return exitWith(ExitParseError, nil)
		}
		return nil
	}

	return watch(ctx, cmd, args, files, logger, func() {
		runAll(makeFormatter())
	})
}

// watch re-runs rerun whenever a suite under the watched paths is written,
// until ctx is cancelled.
func watch(ctx context.Context, cmd *cobra.Command, args, files []string, logger *zap.Logger, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		}
		watchedDirs[dir] = true
	}

	for _, file := range files {
		addDir(filepath.Dir(file))
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					addDir(path)
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !suite.IsSuiteFile(event.Name) {
				continue
			}

			logger.Debug("suite changed", zap.String("file", event.Name))
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running suites...\n\n", name)
				rerun()
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// collectFiles expands args into suite files. Files named explicitly are
// taken as they are; directories are walked for files matching include.
func collectFiles(args, include []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSuiteFile(path, include) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func isSuiteFile(path string, include []string) bool {
	if len(include) == 0 {
		return suite.IsSuiteFile(path)
	}
	base := filepath.Base(path)
	for _, pattern := range include {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
