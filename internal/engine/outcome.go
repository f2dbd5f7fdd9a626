package engine

// OutcomeStatus classifies how a review command resolved.
type OutcomeStatus string

const (
	// OutcomeConfirmed means the gateway acknowledged the mutation.
	OutcomeConfirmed OutcomeStatus = "confirmed"
	// OutcomeQueuedOffline means the mutation could not reach the gateway
	// and was durably queued for replay. The local decision stands.
	OutcomeQueuedOffline OutcomeStatus = "queued_offline"
	// OutcomeRejected means the gateway terminally rejected the mutation,
	// e.g. the item was already resolved by another reviewer. Not retried.
	OutcomeRejected OutcomeStatus = "rejected"
	// OutcomeInvalid means the command failed synchronous validation and
	// nothing was applied or persisted.
	OutcomeInvalid OutcomeStatus = "invalid"
)

// Outcome is the tagged result of one review command.
type Outcome struct {
	Status OutcomeStatus
	// ActionID identifies the queued pending action when Status is
	// OutcomeQueuedOffline.
	ActionID string
	Err      error
}

// Decided reports whether the reviewer's decision took effect locally,
// regardless of whether the remote store has confirmed it yet.
func (o Outcome) Decided() bool {
	switch o.Status {
	case OutcomeConfirmed, OutcomeQueuedOffline, OutcomeRejected:
		return true
	default:
		return false
	}
}

// BulkResult aggregates per-item accounting for one bulk invocation.
type BulkResult struct {
	Submitted int
	Succeeded int
	Failed    int
	FailedIDs []string
}

// ReplayReport summarizes one pass over the pending action log.
type ReplayReport struct {
	Attempted int
	Replayed  int
	Discarded int
	Remaining int
}
