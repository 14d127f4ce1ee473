// Package render turns a loaded render module and a set of page descriptors
// into HTML files.
//
// Each page renders as an independent task. A failing page is logged and
// reported in the Summary; it never aborts its siblings. Writes are skipped
// when the wrapped markup matches what was last written for the route.
package render
