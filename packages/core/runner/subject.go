package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/chainspec/packages/capture"
	"github.com/abdul-hamid-achik/chainspec/packages/core/suite"
	"github.com/abdul-hamid-achik/chainspec/packages/db"
	"github.com/abdul-hamid-achik/chainspec/packages/property"
	"gopkg.in/yaml.v3"
)

// ErrNoDatabase is returned for a sql case when neither the suite nor the
// runner names a database.
var ErrNoDatabase = errors.New("no database configured")

// loadSubject produces the value a case's steps are asserted against.
func loadSubject(ctx context.Context, s *suite.Suite, c *suite.Case, conn *db.Client) (any, error) {
	switch c.Source() {
	case suite.SourceValue:
		v, err := c.InlineValue()
		if err != nil {
			return nil, err
		}
		return selectValue(v, c.Select)

	case suite.SourceJSON:
		return capture.Select([]byte(c.JSON), c.Select)

	case suite.SourceFile:
		return loadFile(s.Dir(), c.File, c.Select)

	case suite.SourceSQL:
		if conn == nil {
			return nil, ErrNoDatabase
		}
		rows, err := conn.Query(ctx, c.SQL)
		if err != nil {
			return nil, err
		}
		return selectValue(rows.Values(), c.Select)
	}
	return nil, fmt.Errorf("case %q has no subject source", c.Name)
}

func loadFile(dir, name, path string) (any, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading subject file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return capture.Select(data, path)
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(name), err)
		}
		return selectValue(v, path)
	}
	return selectValue(string(data), path)
}

func selectValue(v any, path string) (any, error) {
	if path == "" {
		return v, nil
	}
	info := property.Resolve(v, path)
	if !info.Found {
		return nil, fmt.Errorf("%w: %s", capture.ErrNotFound, path)
	}
	return info.Value, nil
}
