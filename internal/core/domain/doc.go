// Package domain defines the types shared by every onair layer.
//
// A Channel is a configured broadcast source. Capture cuts it into
// Segments, each Segment becomes a TranscriptionJob at the engine, and
// a finished transcript is stored as an IndexEntry carrying its vector
// and broadcast time window. Retrieval returns IndexEntries as Matches.
//
// Domain imports the standard library only.
package domain
