// Package items stores the role and permission hierarchy behind a single
// YAML file.
//
// # Model
//
// Items form a directed acyclic graph: roles and permissions are nodes,
// parent -> child edges grant everything reachable below. The store keeps
// two in-memory views, a name -> item index and a parent -> children
// adjacency, both rebuilt atomically on every load. Transitive closures
// are memoized in a small expiring LRU that is purged whenever the file
// changes.
//
// # Persistence
//
// Reads never touch the disk; mutations rewrite the whole file through
// pkg/filestore's atomic save. Mutations that change nothing (removing an
// absent item, deleting a missing edge) skip the write entirely, so file
// timestamps only move when content does.
//
// # Concurrency
//
// Store is safe for concurrent use within one process. ConcurrentStore
// layers cross-process freshness on top: it probes the file's
// modification time before each operation and reloads when another
// instance has written since.
package items
