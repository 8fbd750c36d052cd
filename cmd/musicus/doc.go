// Package main hosts the musicus CLI entrypoint and command graph.
//
// The Cobra command tree reads and edits the classical music library, imports
// discs and folders into it, and runs the disc watcher. Every command builds
// its own config, logger and store through the command context; there is no
// process-wide backend.
//
// Keep this package lean: library semantics live in internal/library and the
// import pipeline in internal/importer. Commands here parse flags, call those
// packages and render the result.
package main
