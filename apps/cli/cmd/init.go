package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/chainspec/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new chainspec project",
	Long: `Initialize a new chainspec project in the current directory.

This creates:
  - .chainspec.yaml       - Configuration file
  - example.chain.yaml    - Example suite

Examples:
  chainspec init
  chainspec init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleSuite = `name: example
database: ":memory:"
setup:
  - CREATE TABLE teas (name TEXT, steep_seconds INTEGER)
  - INSERT INTO teas VALUES ('sencha', 60), ('assam', 240)

cases:
  - name: inline list
    tags: [smoke]
    value: [chai, matcha, oolong]
    steps:
      - expect: to.have.lengthOf
        args: 3
      - expect: to.include
        args: matcha
      - expect: to.not.include
        args: earl grey

  - name: json document
    json: '{"order": {"id": 7, "lines": [{"sku": "tea", "qty": 2}]}}'
    select: order
    steps:
      - expect: to.have.all.keys
        args: [id, lines]
      - expect: to.have.property
        args: lines[0]
        label: first line
        then:
          - expect: to.have.propertyValue
            args: [qty, 2]
          - expect: to.have.schema
            args:
              - type: object
                required: [sku, qty]

  - name: steeping times
    sql: SELECT name, steep_seconds FROM teas ORDER BY steep_seconds
    steps:
      - expect: to.have.length.of.at.least
        args: 2
      - expect: to.deep.include
        args: [{name: sencha, steep_seconds: 60}]
      - expect: to.have.property
        args: "[1].steep_seconds"
        then:
          - expect: to.be.within
            args: [180, 300]
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, "example.chain.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return exitWith(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleSuite), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nchainspec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'chainspec run example.chain.yaml' to execute the example suite.\n")

	return nil
}
