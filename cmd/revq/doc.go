// Package main hosts the revq CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into review
// queue operations: listing and filtering the pending queue, approving,
// rejecting, and editing items, replaying actions queued while offline, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
