// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes every recorded search, with results, to w as YAML.
// The keyword filter of opts applies; the limit is ignored.
func (s *Store) ExportYAML(ctx context.Context, opts ListOptions, w io.Writer) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes every recorded search, with results, to w as indented
// JSON.
func (s *Store) ExportJSON(ctx context.Context, opts ListOptions, w io.Writer) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]Entry, error) {
	opts.Limit = exportLimit
	entries, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}

	for i := range entries {
		if entries[i].Results, err = s.results(ctx, entries[i].ID); err != nil {
			return nil, fmt.Errorf("querying for export: %w", err)
		}
	}
	return entries, nil
}
