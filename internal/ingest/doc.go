// Package ingest reads lists of confirmed sequences from text files and
// feeds them to the engine.
//
// Input is newline-delimited, case-insensitive, blank lines ignored. Files
// that are not valid UTF-8 have their charset detected and are decoded
// before parsing, and compatibility forms (fullwidth letters and the like)
// are folded with NFKC so they compare equal to plain ASCII.
//
// Two directory layouts are supported:
//
//   - mixed: every file holds sequences of any partition (IngestDir)
//   - split: files are named <partition>.txt and hold only that partition
//     (IngestPartitionDir)
package ingest
