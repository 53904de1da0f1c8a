package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/nao1215/sitegraph/internal/linkgraph"
)

// GraphStore persists one link-graph checkpoint file.
// Save calls are serialized; the last call wins.
type GraphStore struct {
	path string
	mu   sync.Mutex
}

// NewGraphStore returns a store for the checkpoint at path.
func NewGraphStore(path string) *GraphStore {
	return &GraphStore{path: path}
}

// Path returns the checkpoint file path.
func (s *GraphStore) Path() string {
	return s.path
}

// Load reads the checkpoint. A missing file yields an empty checkpoint at
// depth 1 and no error. A file that cannot be decoded yields an empty
// checkpoint and an error wrapping ErrCorruptCheckpoint.
func (s *GraphStore) Load() (linkgraph.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return linkgraph.NewCheckpoint(), nil
		}
		return linkgraph.NewCheckpoint(), fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp linkgraph.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return linkgraph.NewCheckpoint(), fmt.Errorf("%w: %s: %v", ErrCorruptCheckpoint, s.path, err)
	}
	if cp.Links == nil {
		cp.Links = make(linkgraph.Graph)
	}
	if cp.Depth < 1 {
		cp.Depth = 1
	}
	return cp, nil
}

// Save overwrites the checkpoint file with cp.
func (s *GraphStore) Save(cp linkgraph.Checkpoint) error {
	if cp.Links == nil {
		cp.Links = make(linkgraph.Graph)
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.path, data)
}
