package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nao1215/sitegraph/internal/model"
)

// WriteContents writes records as one JSON array. Non-ASCII text and
// markup are written unescaped.
func WriteContents(path string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode content records: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// ReadContents reads a JSON array of records.
func ReadContents(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode content file %s: %w", path, err)
	}
	return records, nil
}

// MergeContents concatenates the record arrays of paths in order.
func MergeContents(paths ...string) ([]model.Record, error) {
	merged := make([]model.Record, 0)
	for _, p := range paths {
		records, err := ReadContents(p)
		if err != nil {
			return nil, err
		}
		merged = append(merged, records...)
	}
	return merged, nil
}
