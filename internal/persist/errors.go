package persist

import "errors"

var (
	// ErrCorruptCheckpoint is returned when a checkpoint file exists but
	// does not hold a valid checkpoint. Callers usually log it and start
	// from an empty graph.
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

	// ErrUnknownFormat is returned when a URL list file is neither a
	// checkpoint, a link list, a content array nor plain text.
	ErrUnknownFormat = errors.New("unknown URL list format")
)
