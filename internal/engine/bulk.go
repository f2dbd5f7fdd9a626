package engine

import "context"

// BulkApprove applies an approve decision to each id in order and aggregates
// per-item accounting. There is no rollback: ids that confirmed are gone from
// view, ids that failed transport-wise are queued as pending actions by the
// underlying single-item operation and count as failures here so the caller
// can re-surface just those.
func (e *Engine) BulkApprove(ctx context.Context, itemIDs []string, opts ApproveOptions) BulkResult {
	return e.runBulk(itemIDs, func(itemID string) Outcome {
		return e.Approve(ctx, itemID, opts)
	})
}

// BulkReject applies a reject decision to each id in order. Same contract as
// BulkApprove.
func (e *Engine) BulkReject(ctx context.Context, itemIDs []string, reason string) BulkResult {
	return e.runBulk(itemIDs, func(itemID string) Outcome {
		return e.Reject(ctx, itemID, reason)
	})
}

// runBulk sequences a batch through a single-item operation. Strictly
// sequential: the gateway never sees more than one in-flight mutation from a
// bulk call, and a failure never aborts the remainder of the batch.
func (e *Engine) runBulk(itemIDs []string, op func(string) Outcome) BulkResult {
	result := BulkResult{Submitted: len(itemIDs)}
	for _, itemID := range itemIDs {
		outcome := op(itemID)
		if outcome.Status == OutcomeConfirmed {
			result.Succeeded++
			continue
		}
		result.Failed++
		result.FailedIDs = append(result.FailedIDs, itemID)
	}
	return result
}
