package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"revq/internal/engine"
	"revq/internal/review"
	"revq/internal/session"
)

type filterFlags struct {
	riskAtLeast  string
	minScore     float64
	autoPostOnly bool
	sort         string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.riskAtLeast, "risk-at-least", "", "Only show items at or above this risk level (low, medium, high, blocked)")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "Only show items with at least this readiness score")
	cmd.Flags().BoolVar(&f.autoPostOnly, "auto-post-only", false, "Only show auto-post eligible items")
	cmd.Flags().StringVar(&f.sort, "sort", "", "Sort order (newest, priority, risk, score)")
}

func (f *filterFlags) parse() (review.Filters, review.SortMode, error) {
	filters := review.Filters{
		MinCTSScore:  f.minScore,
		AutoPostOnly: f.autoPostOnly,
	}
	if trimmed := strings.TrimSpace(f.riskAtLeast); trimmed != "" {
		risk, ok := review.ParseRiskLevel(trimmed)
		if !ok {
			return review.Filters{}, "", fmt.Errorf("unknown risk level %q", trimmed)
		}
		filters.RiskAtLeast = risk
	}
	var sort review.SortMode
	if trimmed := strings.TrimSpace(f.sort); trimmed != "" {
		mode, ok := review.ParseSortMode(trimmed)
		if !ok {
			return review.Filters{}, "", fmt.Errorf("unknown sort mode %q", trimmed)
		}
		sort = mode
	}
	return filters, sort, nil
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the review queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending review items",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, sort, err := flags.parse()
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(sess *session.Session) error {
				view, err := sess.Engine().Load(cmd.Context(), filters, sort)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printViewBanner(out, view)
				if len(view.Items) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(queueListHeaders(), buildQueueListRows(view.Items), queueListAlignments()))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show synchronization status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				view, err := sess.Engine().Load(cmd.Context(), review.Filters{}, "")
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Queue Sync", colorize) {
					fmt.Fprintln(out, line)
				}

				connKind, connMsg := statusOK, "connected"
				if view.Offline {
					connKind, connMsg = statusWarn, "offline"
					if !view.CachedAt.IsZero() {
						age := time.Since(view.CachedAt).Round(time.Minute)
						connMsg = fmt.Sprintf("offline, cache from %s ago", age)
						if age > time.Duration(cfg.Engine.CacheStalenessMinutes)*time.Minute {
							connKind = statusError
							connMsg += " (stale)"
						}
					}
				}
				fmt.Fprintln(out, renderStatusLine("Gateway", connKind, connMsg, colorize))

				pendingKind := statusOK
				if view.PendingActions > 0 {
					pendingKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Pending actions", pendingKind, fmt.Sprintf("%d", view.PendingActions), colorize))
				fmt.Fprintln(out, renderStatusLine("Visible items", statusInfo, fmt.Sprintf("%d", len(view.Items)), colorize))
				for _, risk := range []review.RiskLevel{review.RiskBlocked, review.RiskHigh, review.RiskMedium, review.RiskLow} {
					count := 0
					for _, item := range view.Items {
						if item.RiskLevel == risk {
							count++
						}
					}
					if count > 0 {
						fmt.Fprintln(out, renderStatusLine("  "+string(risk), statusInfo, fmt.Sprintf("%d", count), colorize))
					}
				}
				fmt.Fprintln(out, renderStatusLine("Client id", statusInfo, sess.ClientID(), colorize))
				return nil
			})
		},
	}
}

func newApproveCommand(ctx *commandContext) *cobra.Command {
	var responseType string
	var notes string

	cmd := &cobra.Command{
		Use:   "approve <item-id>",
		Short: "Approve a review item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				if err := loadQueue(cmd, sess); err != nil {
					return err
				}
				outcome := sess.Engine().Approve(cmd.Context(), args[0], engine.ApproveOptions{
					ResponseType: responseType,
					Notes:        notes,
				})
				return printOutcome(cmd.OutOrStdout(), "approve", args[0], outcome)
			})
		},
	}

	cmd.Flags().StringVar(&responseType, "response-type", "", "Override the selected response type")
	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes to attach to the approval")
	return cmd
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <item-id>",
		Short: "Reject a review item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				if err := loadQueue(cmd, sess); err != nil {
					return err
				}
				outcome := sess.Engine().Reject(cmd.Context(), args[0], reason)
				return printOutcome(cmd.OutOrStdout(), "reject", args[0], outcome)
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the rejection")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <item-id> <response-text>",
		Short: "Replace an item's selected response text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				if err := loadQueue(cmd, sess); err != nil {
					return err
				}
				outcome := sess.Engine().Edit(cmd.Context(), args[0], args[1])
				return printOutcome(cmd.OutOrStdout(), "edit", args[0], outcome)
			})
		},
	}
}

func newBulkApproveCommand(ctx *commandContext) *cobra.Command {
	var responseType string

	cmd := &cobra.Command{
		Use:   "bulk-approve <item-id>...",
		Short: "Approve multiple review items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				if err := loadQueue(cmd, sess); err != nil {
					return err
				}
				result := sess.Engine().BulkApprove(cmd.Context(), args, engine.ApproveOptions{
					ResponseType: responseType,
				})
				printBulkResult(cmd.OutOrStdout(), "bulk approve", result)
				if result.Failed > 0 {
					return fmt.Errorf("%d of %d items failed", result.Failed, result.Submitted)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&responseType, "response-type", "", "Override the selected response type for all items")
	return cmd
}

func newBulkRejectCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "bulk-reject <item-id>...",
		Short: "Reject multiple review items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				if err := loadQueue(cmd, sess); err != nil {
					return err
				}
				result := sess.Engine().BulkReject(cmd.Context(), args, reason)
				printBulkResult(cmd.OutOrStdout(), "bulk reject", result)
				if result.Failed > 0 {
					return fmt.Errorf("%d of %d items failed", result.Failed, result.Submitted)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with each rejection")
	return cmd
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued actions and refresh the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				out := cmd.OutOrStdout()
				report, err := sess.Engine().ReplayPending(cmd.Context())
				if err != nil {
					return err
				}
				if report.Attempted > 0 {
					fmt.Fprintf(out, "replayed %d, discarded %d, remaining %d\n",
						report.Replayed, report.Discarded, report.Remaining)
				}
				view, err := sess.Engine().Load(cmd.Context(), review.Filters{}, "")
				if err != nil {
					return err
				}
				printViewBanner(out, view)
				fmt.Fprintf(out, "%d item(s) in queue\n", len(view.Items))
				return nil
			})
		},
	}
}

// loadQueue primes the engine with the current queue so decision commands
// validate against fresh state. Offline loads fall back to the cache.
func loadQueue(cmd *cobra.Command, sess *session.Session) error {
	_, err := sess.Engine().Load(cmd.Context(), review.Filters{}, "")
	return err
}
