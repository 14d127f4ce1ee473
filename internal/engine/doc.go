// Package engine defines the boundary to the bundler used for both the
// primary build and the isolated static render sub-build.
//
// Implementations compile a config.BuildConfig either once (Run) or
// continuously (Watch). Compile-time problems are reported in the Result;
// the returned error is reserved for failures of the engine itself.
package engine
