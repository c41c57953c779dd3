package compare

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/replay-analyzer/pkg/export"
	"github.com/dtnitsch/replay-analyzer/pkg/storage"
)

// CompareAction diffs two structured exports: compare BEFORE AFTER.
func CompareAction(c *cli.Context) error {
	if c.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: replay-analyzer compare <before.json> <after.json>")
		return cli.Exit("", 2)
	}

	before, err := LoadDocument(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	after, err := LoadDocument(c.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	return WriteComparison(export.Compare(before, after), c.String("format"))
}

// WriteComparison prints a comparison as text or YAML.
func WriteComparison(cmp *export.Comparison, format string) error {
	if format == "yaml" {
		out, err := yaml.Marshal(cmp)
		if err != nil {
			return fmt.Errorf("failed to marshal comparison: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}
	return cmp.WriteText(os.Stdout)
}

// LoadDocument reads and parses an export file.
func LoadDocument(path string) (*export.Document, error) {
	s := &storage.Storage{}
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := export.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

