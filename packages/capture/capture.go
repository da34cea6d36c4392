package capture

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is returned for input that is not a JSON document.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNotFound is returned when a path selects nothing.
	ErrNotFound = errors.New("path not found")
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

type Extractor struct {
	doc gjson.Result
}

// NewExtractor parses data once so several paths can be selected from it.
func NewExtractor(data []byte) (*Extractor, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return &Extractor{doc: gjson.ParseBytes(data)}, nil
}

// Select returns the value at path. An empty path selects the document.
func (e *Extractor) Select(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return e.doc.Value(), true
	}

	result := e.doc.Get(ConvertBracketNotation(path))
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// Select parses data and returns the value at path.
func Select(data []byte, path string) (any, error) {
	e, err := NewExtractor(data)
	if err != nil {
		return nil, err
	}
	value, ok := e.Select(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return value, nil
}

// ConvertBracketNotation rewrites bracket indices to gjson dot notation,
// e.g. "[0].id" -> "0.id" and "items[0].tags[1]" -> "items.0.tags.1".
func ConvertBracketNotation(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}
