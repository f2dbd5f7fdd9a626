// Package review defines the queue item domain model shared across the
// synchronization engine, gateway, and local stores.
//
// Items carry server-owned fields (status, risk level, CTS score, auto-post
// eligibility) that the client consumes read-only, plus the locally mutable
// selected response. Filters and sort modes describe the reviewer's current
// view of pending work.
//
// Treat this package as the single source of truth for item semantics; when
// the server grows new statuses or risk levels, extend the enums here.
package review
