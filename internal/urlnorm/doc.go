// Package urlnorm turns URLs into canonical string identities.
//
// Every deduplication and cycle check in sitegraph compares canonical
// forms produced by Normalize, never raw hrefs.
package urlnorm
