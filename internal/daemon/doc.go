// Package daemon implements "musicus watch": a long-running process that
// listens for disc insertions on the configured drive, reads the table of
// contents, and reports which stored mediums share the disc's source ID.
//
// A flock-based lock file keeps a second watcher from fighting over the
// drive. Detection never rips or writes to the library; it only identifies.
package daemon
