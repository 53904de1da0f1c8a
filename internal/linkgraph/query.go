package linkgraph

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// FilterPrefix keeps the URLs that start with at least one of prefixes,
// in their original order.
func FilterPrefix(urls, prefixes []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		for _, p := range prefixes {
			if strings.HasPrefix(u, p) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// Search returns the URLs of g containing keyword, case-insensitively, sorted.
func Search(g Graph, keyword string) []string {
	kw := strings.ToLower(keyword)
	var out []string
	for _, u := range g.URLs() {
		if strings.Contains(strings.ToLower(u), kw) {
			out = append(out, u)
		}
	}
	slices.Sort(out)
	return out
}

// WriteTree prints the pages reachable from root, one per line, indented
// with one tab per level. Each page is printed once.
func WriteTree(w io.Writer, g Graph, root string) error {
	type item struct {
		url   string
		level int
	}

	printed := make(map[string]struct{})
	stack := []item{{url: root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := printed[it.url]; ok {
			continue
		}
		printed[it.url] = struct{}{}

		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("\t", it.level), it.url); err != nil {
			return err
		}

		children := g[it.url]
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{url: children[i], level: it.level + 1})
		}
	}
	return nil
}
