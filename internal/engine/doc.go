// Package engine owns the reviewer's in-memory view of pending work and keeps
// it consistent across three sources of truth: the remote queue gateway, the
// local snapshot cache, and the live change feed.
//
// Commands (approve, reject, edit) follow a two-phase pattern: the item is
// removed from the visible list synchronously, then the remote mutation is
// attempted. A transport failure appends a durable pending action for later
// replay instead of surfacing an error; the local decision is final and the
// item never returns to the pending view. Change feed events merge under a
// local-pending-wins precedence rule: an item with a recorded pending action
// ignores remote events entirely. This is a deliberate scope limitation, not
// a CRDT; it is correct because a given item has at most one active human
// reviewer in practice.
//
// One Engine exists per reviewer session. All mutation entry points serialize
// through its mutex, so two rapid commands on different items are never
// visibly reordered and a second command on an in-flight item is rejected.
package engine
