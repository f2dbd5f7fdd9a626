package actionlog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the review decision an action replays.
type Kind string

const (
	KindApprove Kind = "approve"
	KindReject  Kind = "reject"
	KindEdit    Kind = "edit"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindApprove:
		return KindApprove, true
	case KindReject:
		return KindReject, true
	case KindEdit:
		return KindEdit, true
	default:
		return "", false
	}
}

// Payload carries the action-specific data needed to replay a decision.
// Fields irrelevant to the action kind stay empty.
type Payload struct {
	ResponseType string `json:"response_type,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Reason       string `json:"reason,omitempty"`
	EditedText   string `json:"edited_text,omitempty"`
}

// Action is a durable record of a mutation awaiting remote confirmation.
type Action struct {
	ID           string
	Kind         Kind
	TargetItemID string
	Payload      Payload
	CreatedAt    time.Time
}

// actionNamespace seeds deterministic action ids.
var actionNamespace = uuid.MustParse("8f8a4f2e-1db2-4cf0-9a65-52c3c3a9d8b1")

// NewAction builds an action with a deterministic id derived from the kind,
// target item, and submission timestamp, supporting idempotent re-append.
func NewAction(kind Kind, targetItemID string, payload Payload, at time.Time) Action {
	at = at.UTC()
	seed := string(kind) + "|" + targetItemID + "|" + at.Format(time.RFC3339Nano)
	return Action{
		ID:           uuid.NewSHA1(actionNamespace, []byte(seed)).String(),
		Kind:         kind,
		TargetItemID: targetItemID,
		Payload:      payload,
		CreatedAt:    at,
	}
}
