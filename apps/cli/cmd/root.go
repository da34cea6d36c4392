package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildTime = "unknown"

	debugFlag  bool
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "chainspec",
	Short: "Fluent assertions over data, written as YAML.",
	Long: `chainspec runs suites of expectations against values, JSON documents,
files and SQL query results. Each step is a readable assertion chain
such as "to.have.length.above" or "to.not.include".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	os.Exit(execute(rootCmd, os.Args[1:]))
}

// execute runs root with args and maps the outcome to an exit code.
func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(root.ErrOrStderr(), "Error:", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return ExitTestFailure
}

// newLogger returns a development logger with --debug and a no-op logger
// otherwise.
func newLogger() *zap.Logger {
	if !debugFlag {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("CHAINSPEC_CONFIG", ""), "Path to config file (env: CHAINSPEC_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", getEnvBool("CHAINSPEC_DEBUG", false), "Log runner internals to stderr (env: CHAINSPEC_DEBUG)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return exitWith(ExitUsageError, err)
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}
