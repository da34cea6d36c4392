package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/chainspec/packages/core/config"
	"github.com/abdul-hamid-achik/chainspec/packages/core/runner"
	"github.com/abdul-hamid-achik/chainspec/packages/core/suite"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|directory]...",
	Short: "Validate suites without running them",
	Long: `Validate suites without running them. Every expect chain is checked
for unknown words and argument counts.

Examples:
  chainspec validate orders.chain.yaml
  chainspec validate ./suites/`,
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := collectFiles(args, cfg.Include)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no suite files found"))
	}

	hasErrors := false
	for _, file := range files {
		problems, err := validateFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s\n", p)
			}
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
	}

	if hasErrors {
		return exitWith(ExitParseError, errors.New("validation failed"))
	}
	return nil
}

// validateFile parses file and checks its expect chains.
func validateFile(file string) ([]*suite.ParseError, error) {
	s, err := suite.ParseFile(file)
	if err != nil {
		return nil, err
	}
	return runner.Check(s), nil
}
