// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportFile = "places-export.yaml"

// ExportYAML writes every stored place to dataDir/places-export.yaml,
// newest first. The export is a convenience snapshot; the database stays the
// source of truth.
func (s *Store) ExportYAML(ctx context.Context) error {
	places, err := s.Recent(ctx, "", -1)
	if err != nil {
		return fmt.Errorf("reading places for export: %w", err)
	}

	data, err := yaml.Marshal(places)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	path := filepath.Join(s.dataDir, exportFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
