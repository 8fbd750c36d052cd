// Package importer coordinates bringing a disc or a folder of files into the
// library.
//
// A Session discovers the tracks of a Source, derives the source ID from
// their durations, and rips them on a single background worker while
// publishing its state. Match looks up mediums already imported from the same
// source, and Finalize copies the ripped files into the library and stores
// the medium that describes them.
package importer
