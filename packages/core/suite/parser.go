package suite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Extensions are the file name suffixes suite files use.
var Extensions = []string{".chain.yaml", ".chain.yml"}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// IsSuiteFile reports whether name has a suite file suffix.
func IsSuiteFile(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func ParseFile(path string) (*Suite, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content, path)
}

// Parse decodes and validates a suite. filename is only used in errors.
func Parse(input []byte, filename string) (*Suite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(input))
	dec.KnownFields(true)

	s := &Suite{}
	if err := dec.Decode(s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{File: filename, Message: "empty suite"}
		}
		return nil, yamlError(filename, err)
	}
	s.Path = filename

	if errs := Validate(s); len(errs) > 0 {
		return nil, errs[0]
	}
	return s, nil
}

func yamlError(filename string, err error) *ParseError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	pe := &ParseError{File: filename, Message: msg}
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}

// Validate checks the structure of s and returns every problem found.
func Validate(s *Suite) []*ParseError {
	var errs []*ParseError
	fail := func(line int, format string, args ...any) {
		errs = append(errs, &ParseError{File: s.Path, Line: line, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(s.Name) == "" {
		fail(0, "suite name is required")
	}
	if len(s.Cases) == 0 {
		fail(0, "suite has no cases")
	}

	seen := make(map[string]int)
	for i, c := range s.Cases {
		if c == nil {
			fail(0, "case %d is empty", i+1)
			continue
		}
		if strings.TrimSpace(c.Name) == "" {
			fail(c.Line, "case %d has no name", i+1)
		} else if line, dup := seen[c.Name]; dup {
			fail(c.Line, "duplicate case %q (first defined on line %d)", c.Name, line)
		} else {
			seen[c.Name] = c.Line
		}

		switch sources := c.Sources(); len(sources) {
		case 0:
			fail(c.Line, "case %q needs one of value, json, file or sql", c.Name)
		case 1:
		default:
			fail(c.Line, "case %q has more than one subject source: %v", c.Name, sources)
		}

		if len(c.Steps) == 0 {
			fail(c.Line, "case %q has no steps", c.Name)
		}
		validateSteps(c.Steps, c, fail)
	}
	return errs
}

func validateSteps(steps []*Step, c *Case, fail func(int, string, ...any)) {
	for _, step := range steps {
		if step == nil {
			fail(c.Line, "case %q has an empty step", c.Name)
			continue
		}
		if strings.TrimSpace(step.Expect) == "" {
			fail(step.Line, "step in case %q has no expect chain", c.Name)
		}
		validateSteps(step.Then, c, fail)
	}
}
