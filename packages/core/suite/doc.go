// Package suite reads declarative assertion suites from YAML files.
//
// A suite names a list of cases. Each case takes its subject from exactly
// one source (an inline value, JSON text, a JSON or YAML file, or an SQL
// query) and runs a list of steps against it. A step is a dot-separated
// chain such as "to.not.have.length.above" plus its arguments; steps under
// "then" run against the chain the step returned.
//
// Suite files end in .chain.yaml or .chain.yml.
package suite
