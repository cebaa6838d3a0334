// Package services holds the onair pipeline: capture supervision,
// transcription polling, indexing, time-window retrieval, the scheduled
// monitor, retention and metadata repair.
//
// Every service depends only on domain types and driven ports, so the
// same code runs against SQLite, Pinecone or the in-memory store.
package services
