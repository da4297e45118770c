// Package store provides SQLite-backed durable storage for canvas
// workspaces.
//
// It holds one row per workspace, node, connection and per-user viewport,
// plus an append-only log of encoded document updates. A Store implements
// persist.Loader, persist.Saver and persist.UpdateLog.
//
// # Write Semantics
//
// Saves are idempotent upserts keyed by (workspace_id, id). The last write
// wins; there are no version checks. Deletes from the canvas arrive as
// soft-deleted records. PurgeDeleted removes them for good, together with
// the connections that reference them.
//
// # Deterministic Reads
//
// Nodes and connections are read ORDER BY z_index ASC, id COLLATE BINARY
// ASC, the canvas paint order. Updates are read in append order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Records are serialized with ir.MarshalCanonical so equal entities are
// stored byte-identically.
package store
