package audit

// Noop returns a Service that discards every decision. Used by tests and
// wiring code when no sink is configured.
func Noop() Service {
	return noopService{}
}
