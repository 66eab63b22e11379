// Package rules persists named, opaque rule payloads in a flat file.
// Items reference rules by name; removal cascades are coordinated by
// pkg/items, which owns the referencing side of the relation.
package rules
