// Package store provides SQLite-backed storage for sections, records and
// users.
//
// Tables:
//   - sections: schema inferred from templates (options and fields as JSON)
//   - records: content items, deleted with their section (ON DELETE CASCADE)
//   - users: dashboard accounts with bcrypt password digests
//
// # Invariants
//
// The "general" section is created on Open and is never deleted by
// DestroySectionsExcept.
//
// Record reads are deterministic: every query ends with "id ASC". The
// default record order is position ASC, created_at DESC.
//
// Timestamps are stored as INTEGER unix nanoseconds in UTC and stamped from
// the store's Clock, so tests can inject a fixed one.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity (record cascade)
package store
