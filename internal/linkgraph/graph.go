package linkgraph

import (
	"slices"
)

// Graph maps a page URL to the URLs linked from it.
type Graph map[string][]string

// Checkpoint is the persisted form of a crawl: the depth of the most
// recently recorded page and the graph so far.
type Checkpoint struct {
	Depth int   `json:"depth"`
	Links Graph `json:"links"`
}

// NewCheckpoint returns an empty checkpoint at depth 1.
func NewCheckpoint() Checkpoint {
	return Checkpoint{Depth: 1, Links: make(Graph)}
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for k, v := range g {
		out[k] = slices.Clone(v)
	}
	return out
}

// Count returns the number of edges in g.
func (g Graph) Count() int {
	n := 0
	for _, v := range g {
		n += len(v)
	}
	return n
}

// URLs returns every URL in g, as a page or as a link target, sorted.
func (g Graph) URLs() []string {
	seen := make(map[string]struct{}, len(g))
	for k, v := range g {
		seen[k] = struct{}{}
		for _, u := range v {
			seen[u] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// Dedupe removes repeated entries from links, keeping first occurrences.
func Dedupe(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
