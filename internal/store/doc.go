// Package store keeps snapshots of a wiki's real layer in SQLite.
//
// A snapshot is the textual form of every real tiddler at one moment. Each
// tiddler row carries its fields as canonical JSON and a content hash, and
// the snapshot row carries a hash over all tiddler hashes in title order, so
// two snapshots of the same content compare equal regardless of when they
// were taken.
//
// # Ordering
//
// Snapshots are ordered by seq, a counter assigned on save, never by wall
// time. Tiddlers within a snapshot are returned in title order (BINARY
// collation).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Hashes are computed by internal/canonical using RFC 8785 canonical JSON
// and SHA-256 with domain separation.
package store
