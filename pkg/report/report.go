package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Write serializes v as indented JSON to path. The data goes to a temp file
// in the same directory first and is renamed into place, so readers never
// observe a partially written results file.
func Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".results-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp result file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close result file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move result file to %s: %w", path, err)
	}
	return nil
}
