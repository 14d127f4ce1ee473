// Package subbuild runs the isolated server-side build that produces the
// render module.
//
// Derive computes the sub-build configuration from the primary one. Runner
// compiles it once, loads the artifact and hands it to the render pipeline.
// WatchSession keeps a single engine watcher alive across incremental
// triggers and rebinds the completion callback on each of them.
package subbuild
