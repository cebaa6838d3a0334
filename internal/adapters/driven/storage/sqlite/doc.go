// Package sqlite keeps onair's local state in one SQLite database
// (modernc.org/sqlite, no cgo): transcript index entries with their
// vectors, and scheduler task state with run history.
//
// Vector search is brute-force cosine over the rows that pass the
// channel and time filters, which suits a single station's retention
// horizon. Schema changes live in migrations/ as numbered up/down pairs.
//
// The database file defaults to ~/.onair/data/onair.db.
package sqlite
