// Package fingerprint computes deterministic source IDs for audio discs.
//
// A source ID is derived only from the ordered list of track durations, so the
// same pressing yields the same ID on any drive while two discs that differ in
// track count, order, or length almost certainly do not collide. The value is
// used to recognise a disc that is already in the library; it is never treated
// as proof of identity.
//
// This package has no musicus-specific dependencies.
package fingerprint
