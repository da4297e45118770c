// Package ir provides the canonical canvas record types.
//
// This package contains the data model shared by every other internal
// package: workspaces, nodes, connections, viewports, partial updates and
// whole-canvas snapshots. ir imports nothing internal, which keeps it the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Positions and sizes are always world coordinates, never screen pixels
//   - Nested attributes are updated through patches and MergeNode only
//   - Node kind is an explicit tag (Metadata.Kind); legacy records are
//     migrated once at load time by MigrateNode
//   - All JSON tags use snake_case
package ir
