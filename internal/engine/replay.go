package engine

import (
	"context"

	"revq/internal/gateway"
	"revq/internal/logging"
)

// ReplayPending drains the action log against the gateway, oldest first.
// Each action is independent: a confirmed success (or terminal rejection)
// removes the action, a transport failure leaves it for the next replay, and
// one failure never short-circuits the rest of the batch. Callers invoke
// this on reconnect or app-resume; the engine does not poll connectivity
// itself.
func (e *Engine) ReplayPending(ctx context.Context) (ReplayReport, error) {
	actions, err := e.log.ListAll(ctx)
	if err != nil {
		return ReplayReport{}, err
	}

	report := ReplayReport{Attempted: len(actions)}
	for _, action := range actions {
		submitErr := e.submit(ctx, action.Kind, action.TargetItemID, action.Payload)

		switch {
		case submitErr == nil:
			if err := e.log.Remove(ctx, action.ID); err != nil {
				e.logger.Error("failed to remove replayed action",
					logging.String(logging.FieldEventType, "actionlog_remove_failed"),
					logging.String(logging.FieldActionID, action.ID),
					logging.Error(err))
			}
			e.settleAction(action.TargetItemID)
			report.Replayed++
			e.logger.Info("pending action replayed",
				logging.String(logging.FieldItemID, action.TargetItemID),
				logging.String(logging.FieldActionKind, string(action.Kind)),
				logging.String(logging.FieldActionID, action.ID))
			e.recordAudit(ctx, action.Kind, action.TargetItemID, action.Payload, true)
		case gateway.IsTransport(submitErr):
			report.Remaining++
			e.logger.Debug("pending action still unreachable",
				logging.String(logging.FieldItemID, action.TargetItemID),
				logging.String(logging.FieldActionID, action.ID),
				logging.Error(submitErr))
		default:
			// Terminal remote rejection: the server resolved the item some
			// other way. Discard rather than retry forever.
			if err := e.log.Remove(ctx, action.ID); err != nil {
				e.logger.Error("failed to remove rejected action",
					logging.String(logging.FieldEventType, "actionlog_remove_failed"),
					logging.String(logging.FieldActionID, action.ID),
					logging.Error(err))
			}
			e.settleAction(action.TargetItemID)
			report.Discarded++
			e.logger.Warn("pending action rejected by server, discarded",
				logging.String(logging.FieldEventType, "replay_rejected"),
				logging.String(logging.FieldItemID, action.TargetItemID),
				logging.String(logging.FieldActionKind, string(action.Kind)),
				logging.Error(submitErr))
		}
	}

	e.mu.Lock()
	if report.Remaining == 0 {
		e.offline = false
	}
	e.mu.Unlock()

	return report, nil
}

// settleAction updates in-memory accounting after an action left the log.
// The item stays resolved: there is no path back to pending once a local
// decision is made.
func (e *Engine) settleAction(itemID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending[itemID] > 1 {
		e.pending[itemID]--
	} else {
		delete(e.pending, itemID)
	}
	e.resolved[itemID] = struct{}{}
	delete(e.items, itemID)
}
