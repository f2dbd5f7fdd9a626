package review

import (
	"sort"
	"strings"
)

// SortMode orders the visible queue.
type SortMode string

const (
	// SortNewest orders by creation time, newest first. This is the default.
	SortNewest SortMode = "newest"
	// SortPriority orders by priority descending, ties broken newest first.
	SortPriority SortMode = "priority"
	// SortRisk orders by risk severity descending, ties broken newest first.
	SortRisk SortMode = "risk"
	// SortScore orders by CTS score descending, ties broken newest first.
	SortScore SortMode = "score"
)

// ParseSortMode converts a string into a known SortMode.
func ParseSortMode(value string) (SortMode, bool) {
	switch SortMode(strings.ToLower(strings.TrimSpace(value))) {
	case SortNewest:
		return SortNewest, true
	case SortPriority:
		return SortPriority, true
	case SortRisk:
		return SortRisk, true
	case SortScore:
		return SortScore, true
	default:
		return "", false
	}
}

// Filters narrows the visible queue. Zero values mean "no constraint".
type Filters struct {
	// RiskAtLeast keeps only items at or above the given severity.
	RiskAtLeast RiskLevel
	// MinCTSScore keeps only items with at least this readiness score.
	MinCTSScore float64
	// AutoPostOnly keeps only items the server marked auto-post eligible.
	AutoPostOnly bool
}

// Matches reports whether an item satisfies every active constraint.
func (f Filters) Matches(item Item) bool {
	if f.RiskAtLeast != "" && item.RiskLevel.Severity() < f.RiskAtLeast.Severity() {
		return false
	}
	if f.MinCTSScore > 0 && item.CTSScore < f.MinCTSScore {
		return false
	}
	if f.AutoPostOnly && !item.CanAutoPost {
		return false
	}
	return true
}

// SortItems orders items in place according to the given mode.
func SortItems(items []Item, mode SortMode) {
	newer := func(a, b Item) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch mode {
		case SortPriority:
			if a.Priority != b.Priority {
				return a.Priority > b.Priority
			}
		case SortRisk:
			if a.RiskLevel.Severity() != b.RiskLevel.Severity() {
				return a.RiskLevel.Severity() > b.RiskLevel.Severity()
			}
		case SortScore:
			if a.CTSScore != b.CTSScore {
				return a.CTSScore > b.CTSScore
			}
		}
		return newer(a, b)
	})
}
