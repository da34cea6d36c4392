package suite

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is one parsed suite file.
type Suite struct {
	Name     string   `yaml:"name"`
	Database string   `yaml:"database,omitempty"`
	Setup    []string `yaml:"setup,omitempty"`
	Cases    []*Case  `yaml:"cases"`
	Path     string   `yaml:"-"`
}

// Dir is the directory file subjects are resolved against.
func (s *Suite) Dir() string {
	if s.Path == "" {
		return "."
	}
	return filepath.Dir(s.Path)
}

type Case struct {
	Name   string    `yaml:"name"`
	Skip   bool      `yaml:"skip,omitempty"`
	Only   bool      `yaml:"only,omitempty"`
	Tags   []string  `yaml:"tags,omitempty"`
	Value  yaml.Node `yaml:"value,omitempty"`
	JSON   string    `yaml:"json,omitempty"`
	File   string    `yaml:"file,omitempty"`
	SQL    string    `yaml:"sql,omitempty"`
	Select string    `yaml:"select,omitempty"`
	Steps  []*Step   `yaml:"steps"`
	Line   int       `yaml:"-"`
}

// Source names where the case's subject comes from.
type Source string

const (
	SourceNone  Source = ""
	SourceValue Source = "value"
	SourceJSON  Source = "json"
	SourceFile  Source = "file"
	SourceSQL   Source = "sql"
)

// Sources lists every subject source the case sets.
func (c *Case) Sources() []Source {
	var sources []Source
	if c.Value.Kind != 0 {
		sources = append(sources, SourceValue)
	}
	if c.JSON != "" {
		sources = append(sources, SourceJSON)
	}
	if c.File != "" {
		sources = append(sources, SourceFile)
	}
	if c.SQL != "" {
		sources = append(sources, SourceSQL)
	}
	return sources
}

// Source returns the case's subject source, or SourceNone when it does not
// set exactly one.
func (c *Case) Source() Source {
	if sources := c.Sources(); len(sources) == 1 {
		return sources[0]
	}
	return SourceNone
}

// InlineValue decodes the case's inline value. An explicit null is nil.
func (c *Case) InlineValue() (any, error) {
	if c.Value.Kind == 0 {
		return nil, nil
	}
	var v any
	if err := c.Value.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return v, nil
}

// HasTag reports whether the case carries any of tags. An empty tags list
// matches every case.
func (c *Case) HasTag(tags ...string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, tag := range c.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

func (c *Case) UnmarshalYAML(node *yaml.Node) error {
	type plain Case
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Line = node.Line
	return nil
}

type Step struct {
	Expect string  `yaml:"expect"`
	Args   Args    `yaml:"args,omitempty"`
	Label  string  `yaml:"label,omitempty"`
	Then   []*Step `yaml:"then,omitempty"`
	Line   int     `yaml:"-"`
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	type plain Step
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Line = node.Line
	return nil
}

// Args are a step's arguments. A single scalar or mapping is one argument;
// a sequence is a list of arguments.
type Args []any

func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var list []any
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = list
		return nil
	}
	var single any
	if err := node.Decode(&single); err != nil {
		return err
	}
	*a = Args{single}
	return nil
}

type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	case e.File != "":
		return e.File + ": " + e.Message
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
