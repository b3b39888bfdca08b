// Package seed loads court catalogs from JSON or YAML files and inserts them
// in one batch, the same way POST /courts/bulk does.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trentd187/sports-club/internal/models"
)

// CourtWriter is the part of the store seeding needs.
type CourtWriter interface {
	CreateMany(ctx context.Context, courts []models.Court) (int64, error)
}

// Format of a seed document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks a format from a file extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// file accepts either a bare list of courts or {"courts": [...]}.
type file struct {
	Courts []map[string]any `json:"courts" yaml:"courts"`
}

// Parse reads a court list from r.
func Parse(r io.Reader, format Format) ([]models.Court, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("seed file is empty")
	}

	var items []map[string]any
	switch format {
	case FormatYAML:
		items, err = parseYAML(raw)
	default:
		items, err = parseJSON(raw)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("seed file has no courts")
	}
	return models.CourtsFromFields(items)
}

func parseJSON(raw []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if raw[0] == '[' {
		var items []map[string]any
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("decoding json seed: %w", err)
		}
		return items, nil
	}
	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding json seed: %w", err)
	}
	return f.Courts, nil
}

func parseYAML(raw []byte) ([]map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decoding yaml seed: %w", err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var items []map[string]any
		if err := node.Decode(&items); err != nil {
			return nil, fmt.Errorf("decoding yaml seed: %w", err)
		}
		return items, nil
	}
	var f file
	if err := node.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding yaml seed: %w", err)
	}
	return f.Courts, nil
}

// Load parses the seed file at path and inserts its courts.
func Load(ctx context.Context, courts CourtWriter, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening seed: %w", err)
	}
	defer f.Close()

	list, err := Parse(f, FormatFor(path))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	n, err := courts.CreateMany(ctx, list)
	if err != nil {
		return 0, fmt.Errorf("inserting courts: %w", err)
	}
	return n, nil
}
