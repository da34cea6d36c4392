package property

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is returned by Parse for malformed paths.
var ErrSyntax = errors.New("invalid property path")

// Segment is one dot-separated part of a path. Name may be empty for pure
// index access such as [0][1].
type Segment struct {
	Name    string
	Indices []string
}

// String returns the segment in path syntax.
func (s Segment) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	for _, idx := range s.Indices {
		b.WriteByte('[')
		b.WriteString(idx)
		b.WriteByte(']')
	}
	return b.String()
}

// Parse splits a path into segments.
func Parse(path string) ([]Segment, error) {
	if path == "" {
		return nil, syntaxError(path, 0, "empty path")
	}

	var (
		segments []Segment
		seg      Segment
		started  bool
		indexed  bool
	)

	for i := 0; i < len(path); {
		switch path[i] {
		case '.':
			if !started {
				return nil, syntaxError(path, i, "empty segment")
			}
			segments = append(segments, seg)
			seg = Segment{}
			started, indexed = false, false
			i++

		case '[':
			idx, next, err := parseIndex(path, i)
			if err != nil {
				return nil, err
			}
			seg.Indices = append(seg.Indices, idx)
			started, indexed = true, true
			i = next

		case ']':
			return nil, syntaxError(path, i, "unexpected ]")

		default:
			if indexed {
				return nil, syntaxError(path, i, "name after index")
			}
			j := i
			for j < len(path) && !strings.ContainsRune(".[]", rune(path[j])) {
				j++
			}
			seg.Name = path[i:j]
			started = true
			i = j
		}
	}

	if !started {
		return nil, syntaxError(path, len(path), "empty segment")
	}
	return append(segments, seg), nil
}

// parseIndex reads the bracket group opening at path[i] and returns its key
// and the offset after the closing bracket. A key in single or double quotes
// is taken verbatim without the quotes.
func parseIndex(path string, i int) (string, int, error) {
	if i+1 < len(path) && (path[i+1] == '"' || path[i+1] == '\'') {
		quote := path[i+1]
		end := strings.IndexByte(path[i+2:], quote)
		if end < 0 {
			return "", 0, syntaxError(path, i, "unterminated quote")
		}
		closing := i + 2 + end
		if closing+1 >= len(path) || path[closing+1] != ']' {
			return "", 0, syntaxError(path, closing+1, "expected ] after quoted key")
		}
		return path[i+2 : closing], closing + 2, nil
	}

	end := strings.IndexByte(path[i+1:], ']')
	if end < 0 {
		return "", 0, syntaxError(path, i, "unterminated bracket")
	}
	idx := path[i+1 : i+1+end]
	if idx == "" {
		return "", 0, syntaxError(path, i, "empty index")
	}
	return idx, i + end + 2, nil
}

func syntaxError(path string, offset int, msg string) error {
	return fmt.Errorf("%w %q: %s at offset %d", ErrSyntax, path, msg, offset)
}
