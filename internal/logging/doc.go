// Package logging assembles structured slog loggers shared across revq
// components.
//
// It owns the console and JSON handlers, centralizes level parsing and output
// plumbing, and exposes typed attribute helpers plus standardized field keys
// so the engine, stores, and CLI tag log lines the same way. A no-op logger is
// provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
