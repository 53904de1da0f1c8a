// Package persist reads and writes the JSON artifacts sitegraph produces:
// link-graph checkpoints, link lists and content record arrays.
//
// Checkpoint files are fully rewritten on every save through a temporary
// file and a rename, so a crash never leaves a truncated checkpoint.
package persist
