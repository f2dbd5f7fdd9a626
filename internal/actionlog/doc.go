// Package actionlog persists not-yet-confirmed review decisions in SQLite so
// they survive process restarts while offline.
//
// The log is append-mostly: a superseding decision for the same item appends a
// new record rather than mutating the old one, and replay applies records in
// creation order. Records are removed only after the gateway confirms the
// corresponding remote mutation (or rejects it terminally). Action ids are
// deterministic over kind, target item, and submission time so a crashed
// re-append cannot duplicate a record.
//
// Schema changes bump schemaVersion in store.go; users clear the action
// database to adopt the new schema.
package actionlog
