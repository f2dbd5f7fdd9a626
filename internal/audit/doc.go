// Package audit delivers review decision events to the audit sink.
//
// The sink is strictly best-effort: the engine records a decision after the
// gateway confirms it, logs delivery failures, and never rolls a decision
// back because the audit call failed. When no endpoint is configured a noop
// implementation is returned.
package audit
