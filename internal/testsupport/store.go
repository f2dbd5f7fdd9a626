package testsupport

import (
	"testing"

	"revq/internal/actionlog"
	"revq/internal/config"
)

// MustOpenStore opens an action log store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *actionlog.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := actionlog.Open(cfg.ActionLogPath())
	if err != nil {
		t.Fatalf("actionlog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
