// Package linkgraph holds the link graph produced by the crawlers and the
// algorithms run over it: forest cleaning, depth measurement, keyword
// search and prefix filtering.
//
// A Graph maps a canonical page URL to the canonical URLs found on that
// page. Raw graphs are usually cyclic and partial; Clean derives a rooted
// forest in which every reachable node appears exactly once.
//
// All traversals are iterative with explicit visited tracking, so graph
// size and cycles never affect stack depth.
package linkgraph
