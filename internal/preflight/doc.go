// Package preflight provides readiness checks for the tools, directories and
// drive that a musicus import depends on.
//
// The CLI "musicus doctor" command prints every result. Imports call RunAll
// before touching the drive so a missing encoder is reported before a disc
// has spun up rather than after the first track.
package preflight
