// Package main provides the entry point for the sitegraph CLI.
//
// sitegraph maps the link graph of a website, including links that only
// appear after JavaScript interaction, and turns the discovered URLs into
// clean text records. Every artifact doubles as a checkpoint, so an
// interrupted run resumes where it stopped.
//
// Usage:
//
//	sitegraph links https://example.com/ -o graph.json
//	sitegraph suburls https://example.com/docs/ -d out
//	sitegraph content -i graph.json -o content.json
//
// See --help for all available options.
package main

func main() {
	Execute()
}
