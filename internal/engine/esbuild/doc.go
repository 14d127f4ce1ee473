// Package esbuild implements engine.Engine on the esbuild Go API. Builds run
// in-process; watch mode uses an esbuild build context with an on-end hook
// that forwards every completed rebuild to the caller.
package esbuild
