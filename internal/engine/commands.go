package engine

import (
	"context"
	"fmt"
	"strings"

	"revq/internal/actionlog"
	"revq/internal/gateway"
	"revq/internal/logging"
)

// ApproveOptions carries the optional approve parameters.
type ApproveOptions struct {
	ResponseType string
	Notes        string
}

// Approve applies an approve decision to the item. The item leaves the
// visible queue immediately; the remote confirmation is best-effort.
func (e *Engine) Approve(ctx context.Context, itemID string, opts ApproveOptions) Outcome {
	payload := actionlog.Payload{ResponseType: opts.ResponseType, Notes: opts.Notes}
	return e.command(ctx, itemID, actionlog.KindApprove, payload)
}

// Reject applies a reject decision to the item. Same contract as Approve.
func (e *Engine) Reject(ctx context.Context, itemID string, reason string) Outcome {
	return e.command(ctx, itemID, actionlog.KindReject, actionlog.Payload{Reason: reason})
}

// Edit replaces the item's selected response text. Empty and no-op edits are
// rejected synchronously. The resulting status is edited, which the engine
// treats identically to approved for removal from the queue.
func (e *Engine) Edit(ctx context.Context, itemID string, newText string) Outcome {
	return e.command(ctx, itemID, actionlog.KindEdit, actionlog.Payload{EditedText: newText})
}

func (e *Engine) command(ctx context.Context, itemID string, kind actionlog.Kind, payload actionlog.Payload) Outcome {
	e.mu.Lock()

	if e.hiddenLocked(itemID) {
		e.mu.Unlock()
		return Outcome{Status: OutcomeInvalid, Err: fmt.Errorf("item %s already has a decision", itemID)}
	}
	item, ok := e.items[itemID]
	if !ok {
		e.mu.Unlock()
		return Outcome{Status: OutcomeInvalid, Err: fmt.Errorf("unknown item %s", itemID)}
	}
	if kind == actionlog.KindEdit {
		text := strings.TrimSpace(payload.EditedText)
		if text == "" {
			e.mu.Unlock()
			return Outcome{Status: OutcomeInvalid, Err: fmt.Errorf("edit text for item %s is empty", itemID)}
		}
		if payload.EditedText == item.SelectedResponseText {
			e.mu.Unlock()
			return Outcome{Status: OutcomeInvalid, Err: fmt.Errorf("edit for item %s does not change the response", itemID)}
		}
	}

	// Phase one: optimistic removal, applied before any network suspension so
	// the reviewer's decision takes effect instantly and never reorders.
	delete(e.items, itemID)
	e.resolved[itemID] = struct{}{}
	e.inflight[itemID] = struct{}{}
	e.saveCacheLocked()
	e.mu.Unlock()

	// Phase two: confirm or queue.
	submitErr := e.submit(ctx, kind, itemID, payload)

	var outcome Outcome
	e.mu.Lock()
	delete(e.inflight, itemID)
	switch {
	case submitErr == nil:
		e.offline = false
		outcome = Outcome{Status: OutcomeConfirmed}
	case gateway.IsTransport(submitErr):
		action := actionlog.NewAction(kind, itemID, payload, e.now())
		if appendErr := e.log.Append(ctx, action); appendErr != nil {
			e.logger.Error("failed to persist pending action",
				logging.String(logging.FieldEventType, "actionlog_append_failed"),
				logging.String(logging.FieldItemID, itemID),
				logging.Error(appendErr))
		}
		e.pending[itemID]++
		e.offline = true
		outcome = Outcome{Status: OutcomeQueuedOffline, ActionID: action.ID, Err: submitErr}
	default:
		// Confirmed remote rejection (or server-side validation): the server
		// state is authoritative once reachable, so the decision is dropped
		// and the item stays out of view.
		outcome = Outcome{Status: OutcomeRejected, Err: submitErr}
	}
	e.mu.Unlock()

	switch outcome.Status {
	case OutcomeConfirmed:
		e.logger.Info("decision confirmed",
			logging.String(logging.FieldItemID, itemID),
			logging.String(logging.FieldActionKind, string(kind)))
		e.recordAudit(ctx, kind, itemID, payload, false)
	case OutcomeQueuedOffline:
		e.logger.Info("decision queued for replay",
			logging.String(logging.FieldItemID, itemID),
			logging.String(logging.FieldActionKind, string(kind)),
			logging.String(logging.FieldActionID, outcome.ActionID))
	case OutcomeRejected:
		e.logger.Warn("decision rejected by server",
			logging.String(logging.FieldEventType, "remote_rejection"),
			logging.String(logging.FieldItemID, itemID),
			logging.String(logging.FieldActionKind, string(kind)),
			logging.Error(outcome.Err))
	}
	return outcome
}

func (e *Engine) submit(ctx context.Context, kind actionlog.Kind, itemID string, payload actionlog.Payload) error {
	switch kind {
	case actionlog.KindApprove:
		return e.gw.SubmitApprove(ctx, itemID, gateway.ApprovePayload{
			ResponseType: payload.ResponseType,
			Notes:        payload.Notes,
		})
	case actionlog.KindReject:
		return e.gw.SubmitReject(ctx, itemID, gateway.RejectPayload{Reason: payload.Reason})
	case actionlog.KindEdit:
		return e.gw.SubmitEdit(ctx, itemID, payload.EditedText)
	default:
		return fmt.Errorf("unknown action kind %q", kind)
	}
}
