package linkgraph

// Clean derives a rooted forest from g.
//
// The walk is depth first from root. Each visited page claims all of its
// unclaimed children before any of them is descended into, and a child
// claimed anywhere earlier in the walk is dropped. Pages left without
// children are omitted. The result contains no cycles, and every node
// reachable from root appears as a child at most once.
func Clean(g Graph, root string) Graph {
	out := make(Graph)
	claimed := map[string]struct{}{root: {}}
	stack := []string{root}

	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		edges, ok := g[u]
		if !ok {
			continue
		}

		children := make([]string, 0, len(edges))
		for _, c := range Dedupe(edges) {
			if _, seen := claimed[c]; !seen {
				children = append(children, c)
			}
		}
		if len(children) == 0 {
			continue
		}

		for _, c := range children {
			claimed[c] = struct{}{}
		}
		out[u] = children

		// Reverse push keeps the descent order equal to the link order.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return out
}

// Depth returns the number of link hops from root to the farthest page
// reachable in g, counting each page once. A root with no links has depth 0.
func Depth(g Graph, root string) int {
	visited := map[string]struct{}{root: {}}
	frontier := []string{root}
	depth := 0

	for {
		var next []string
		for _, u := range frontier {
			for _, c := range g[u] {
				if _, ok := visited[c]; ok {
					continue
				}
				visited[c] = struct{}{}
				next = append(next, c)
			}
		}
		if len(next) == 0 {
			return depth
		}
		depth++
		frontier = next
	}
}
