package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/chainspec/packages/core/config"
	"github.com/abdul-hamid-achik/chainspec/packages/core/suite"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [file|directory]...",
	Short: "List the cases in suites",
	Long: `List the cases defined in suites, with their subject source and tags.

Examples:
  chainspec list orders.chain.yaml
  chainspec list ./suites/`,
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	for _, file := range files {
		s, err := suite.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(out, "\n%s (%s):\n", s.Name, file)
		for _, c := range s.Cases {
			fmt.Fprintf(out, "  - %s [%s, %d steps]", c.Name, c.Source(), countSteps(c.Steps))
			if c.Skip {
				fmt.Fprintf(out, " (skip)")
			}
			fmt.Fprintln(out)
			if len(c.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %s\n", strings.Join(c.Tags, ", "))
			}
		}
	}

	return nil
}

func countSteps(steps []*suite.Step) int {
	n := 0
	for _, step := range steps {
		n += 1 + countSteps(step.Then)
	}
	return n
}
