// Package ledger implements an append-only, hash-chained record of
// trust-score and DAO-vote events.
//
// Each entry carries the SHA-256 of its canonically-encoded body and the
// hash of its predecessor, so any mutation of a committed entry is
// detectable. The chain starts at height 1; the genesis entry's prevHash
// is the well-known GenesisPrevHash sentinel (64 hex zeros). The Core is
// the single authoritative in-memory sequence for a process; a Sink
// mirrors committed entries to durable storage on a best-effort basis.
//
// Two Sink implementations are provided:
//   - FileSink: one JSON record per line in an append-only file.
//   - PostgresSink: durable, for deployments with a database.
package ledger
