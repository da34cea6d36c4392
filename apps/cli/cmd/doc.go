// Package cmd implements the chainspec CLI commands using Cobra.
//
// Available commands:
//   - run: Execute chain suites
//   - validate: Check suites and their expect chains without running them
//   - list: Display the cases defined in suites
//   - init: Create a config file and an example suite
//   - version: Show version information
//   - completion: Generate shell completion scripts
package cmd
