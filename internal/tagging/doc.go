// Package tagging reads and writes the metadata embedded in imported audio
// files. FLAC files get Vorbis comments describing the medium, work, and
// performers so the files stay meaningful outside the library database.
package tagging
