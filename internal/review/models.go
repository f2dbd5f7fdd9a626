package review

import (
	"strings"
	"time"
)

// Status represents the server-owned lifecycle of a queue item. The client
// treats pending as "in this queue" and every other value as "remove from
// view".
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusEdited   Status = "edited"
	StatusPosted   Status = "posted"
	StatusFailed   Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusEdited,
	StatusPosted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// RiskLevel classifies an item's moderation risk. Severity is ordinal:
// blocked > high > medium > low.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskBlocked RiskLevel = "blocked"
)

var riskSeverity = map[RiskLevel]int{
	RiskLow:     1,
	RiskMedium:  2,
	RiskHigh:    3,
	RiskBlocked: 4,
}

// Severity returns the ordinal rank of a risk level. Unknown levels rank
// below low so malformed server data never outranks real risk.
func (r RiskLevel) Severity() int {
	return riskSeverity[r]
}

// ParseRiskLevel converts a string into a known RiskLevel.
func ParseRiskLevel(value string) (RiskLevel, bool) {
	normalized := RiskLevel(strings.ToLower(strings.TrimSpace(value)))
	_, ok := riskSeverity[normalized]
	return normalized, ok
}

// DefaultPriority is assigned when the server omits an item priority.
const DefaultPriority = 50

// Item is a unit of review work as reported by the remote store.
type Item struct {
	ID                   string    `json:"id"`
	Status               Status    `json:"status"`
	Priority             int       `json:"priority"`
	RiskLevel            RiskLevel `json:"risk_level"`
	CTSScore             float64   `json:"cts_score"`
	CanAutoPost          bool      `json:"can_auto_post"`
	SelectedResponseType string    `json:"selected_response_type"`
	SelectedResponseText string    `json:"selected_response_text"`
	CreatedAt            time.Time `json:"created_at"`
}

// InQueue reports whether the item belongs in the active review view.
func (i Item) InQueue() bool {
	return i.Status == StatusPending
}
