// Package filestore provides the shared persistence machinery for the
// rolevault stores: a flat-file YAML codec, a modification-time based
// concurrency guard, and an fsnotify change watcher.
//
// # Codec
//
// Codec owns every byte that touches disk. Loads treat a missing file as an
// empty dataset; saves create parent directories (0775), write atomically
// via temp-file-then-rename, and then run invalidation hooks so in-process
// caches derived from the file contents are flushed.
//
//	codec := filestore.NewCodec()
//	var records map[string]itemRecord
//	if err := codec.Load(path, &records); err != nil { ... }
//
// # Guard
//
// Multiple independent processes (separate web requests, typically) share
// one on-disk file set. Guard keeps them consistent without a lock manager:
// each store instance remembers the file timestamp of its last load and
// re-parses only when a sibling's write moved it. The check is one-shot per
// instance: after the first catch-up reload the guard disarms.
//
// # Watcher
//
// Watcher layers fsnotify on top for long-lived processes that prefer push
// notifications over per-call stats; its callback is typically
// Guard.Invalidate.
package filestore
