// Package disc drives an audio CD through table-of-contents discovery and
// per-track ripping.
//
// The Controller owns a small state machine over a Graph, the audio pipeline
// that reads the drive, encodes, and writes to a sink. The graph is first
// built against a discard sink so it can reach the paused state in which the
// drive reports its TOC; once track destinations are known the discard sink
// is swapped for a file sink and tracks are ripped one at a time.
// CommandGraph implements the graph with cdparanoia and flac. Drive status
// and eject helpers live here too so callers never touch the device directly.
package disc
