// Package cli implements the rolevault command line tool: inspection
// (list, tree, audit), assignment management (assign, revoke) and a
// storage-directory watcher. All commands read their configuration from
// ROLEVAULT_* environment variables via pkg/config.
package cli
