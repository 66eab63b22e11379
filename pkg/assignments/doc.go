// Package assignments stores user -> item grants behind a single YAML
// file, keyed by user ID.
//
// Assignments are flat facts: they record that a user was granted an item
// name at some time, nothing more. Whether that name still exists, or what
// it transitively grants, is the item store's business; the two files are
// kept consistent by the caller invoking RenameItem and RemoveByItemName
// when the hierarchy changes.
//
// Mutations that change nothing skip the file write, and ConcurrentStore
// adds the same probe-then-reload freshness layer as pkg/items.
package assignments
