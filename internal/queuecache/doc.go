// Package queuecache stores the last known-good snapshot of queue items for
// instant display before a remote fetch completes.
//
// The snapshot is a read-only display fallback: it is replaced wholesale on
// every save and read wholesale only when a fetch fails and in-memory state is
// empty. It is never merged field-by-field with live state.
package queuecache
