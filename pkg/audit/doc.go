// Package audit records store mutations to a newline-delimited JSON
// trail.
//
// The trail answers "who changed what, when" for the RBAC files, which the
// files themselves cannot: a save rewrites the whole file and keeps no
// history. Recording is best-effort; stores log a failed write and carry
// on rather than failing the mutation.
package audit
