// Package errors provides the classified error primitives used across staticrender.
//
// A ClassifiedError carries a category (config, build, render, ...), a severity
// and structured context. Construction-time and entry-selection failures are
// config errors; engine failures are build errors; per-page failures are render
// errors and never leave their page task.
//
// Example usage:
//
//	err := errors.ConfigError("Cannot find the entry admin").
//		WithContext("target_entry", "admin").
//		Build()
package errors
