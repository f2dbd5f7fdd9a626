// Package session wires one reviewer session together: it enforces
// single-instance execution with a file lock, owns the persisted client
// identity, opens the durable action log and queue cache, connects the
// gateway and audit clients, and hands out the synchronization engine.
// The optional change feed listener is started on demand and torn down
// with the session.
package session
