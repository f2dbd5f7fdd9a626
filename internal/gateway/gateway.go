package gateway

import (
	"context"

	"revq/internal/review"
)

// Page selects one slice of the remote queue.
type Page struct {
	Number int
	Size   int
}

// Result is one fetched page of queue items plus the total match count.
type Result struct {
	Items      []review.Item `json:"items"`
	TotalCount int           `json:"total_count"`
}

// ApprovePayload carries the approve mutation body.
type ApprovePayload struct {
	ResponseType string `json:"response_type,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// RejectPayload carries the reject mutation body.
type RejectPayload struct {
	Reason string `json:"reason,omitempty"`
}

// Client is the remote queue surface the engine depends on. Mutations are
// idempotent per item id: approving an already-approved item is a no-op
// server-side, not an error.
type Client interface {
	FetchQueue(ctx context.Context, filters review.Filters, sort review.SortMode, page Page) (Result, error)
	SubmitApprove(ctx context.Context, itemID string, payload ApprovePayload) error
	SubmitReject(ctx context.Context, itemID string, payload RejectPayload) error
	SubmitEdit(ctx context.Context, itemID string, text string) error
}
