package engine

import (
	"revq/internal/changefeed"
	"revq/internal/logging"
)

// Reconcile merges one remote change event into local state. It implements
// changefeed.Sink.
//
// Precedence is local-pending-wins: if the item has an in-flight command, a
// locally resolved decision, or a pending action awaiting replay, the event
// is dropped so a stale push cannot clobber the reviewer's decision. The rule
// is keyed on presence alone, which keeps it safe even when the transport
// reorders a single item's updates.
func (e *Engine) Reconcile(event changefeed.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if event.Origin != "" && event.Origin == e.clientID {
		return
	}
	if e.hiddenLocked(event.ItemID) {
		e.logger.Debug("dropping remote event, local decision wins",
			logging.String(logging.FieldItemID, event.ItemID),
			logging.String(logging.FieldChangeKind, string(event.Kind)))
		return
	}

	switch event.Kind {
	case changefeed.KindStatusLeftPending:
		delete(e.items, event.ItemID)
	case changefeed.KindInsert, changefeed.KindUpdate:
		if event.Item == nil {
			e.logger.Warn("change event missing item payload",
				logging.String(logging.FieldEventType, "feed_event_incomplete"),
				logging.String(logging.FieldItemID, event.ItemID))
			return
		}
		item := *event.Item
		if item.InQueue() && e.filters.Matches(item) {
			e.items[item.ID] = item
		} else {
			delete(e.items, item.ID)
		}
	default:
		return
	}

	e.saveCacheLocked()
}
