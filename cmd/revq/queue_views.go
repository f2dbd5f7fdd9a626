package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"revq/internal/engine"
	"revq/internal/review"
)

func buildQueueListRows(items []review.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		response := item.SelectedResponseText
		if len(response) > 48 {
			response = response[:45] + "..."
		}
		rows = append(rows, []string{
			item.ID,
			string(item.RiskLevel),
			strconv.Itoa(item.Priority),
			fmt.Sprintf("%.2f", item.CTSScore),
			yesNo(item.CanAutoPost),
			item.CreatedAt.Local().Format("2006-01-02 15:04"),
			response,
		})
	}
	return rows
}

func queueListHeaders() []string {
	return []string{"ID", "Risk", "Priority", "Score", "Auto", "Created", "Response"}
}

func queueListAlignments() []columnAlignment {
	return []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft}
}

func printViewBanner(out io.Writer, view engine.View) {
	if view.Offline {
		if !view.CachedAt.IsZero() {
			fmt.Fprintf(out, "OFFLINE: showing cached queue from %s\n", view.CachedAt.Local().Format(time.RFC822))
		} else {
			fmt.Fprintln(out, "OFFLINE: live queue unavailable")
		}
	}
	if view.PendingActions > 0 {
		fmt.Fprintf(out, "%d pending action(s) awaiting sync\n", view.PendingActions)
	}
}

func printOutcome(out io.Writer, verb, itemID string, outcome engine.Outcome) error {
	switch outcome.Status {
	case engine.OutcomeConfirmed:
		fmt.Fprintf(out, "%s %s: confirmed\n", verb, itemID)
		return nil
	case engine.OutcomeQueuedOffline:
		fmt.Fprintf(out, "%s %s: queued for sync (offline)\n", verb, itemID)
		return nil
	case engine.OutcomeRejected:
		return fmt.Errorf("%s %s rejected by server: %v", verb, itemID, outcome.Err)
	default:
		return fmt.Errorf("%s %s: %v", verb, itemID, outcome.Err)
	}
}

func printBulkResult(out io.Writer, verb string, result engine.BulkResult) {
	fmt.Fprintf(out, "%s: %d submitted, %d succeeded, %d failed\n",
		verb, result.Submitted, result.Succeeded, result.Failed)
	for _, id := range result.FailedIDs {
		fmt.Fprintf(out, "  failed: %s\n", id)
	}
}
