package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"revq/internal/review"
	"revq/internal/session"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the queue, applying remote changes and replaying queued actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withSession(cmd, func(sess *session.Session) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				view, err := sess.Engine().Load(signalCtx, review.Filters{}, "")
				if err != nil {
					return err
				}
				printViewBanner(out, view)
				fmt.Fprintf(out, "watching queue (%d items), ctrl-c to stop\n", len(view.Items))

				if err := sess.StartFeed(signalCtx); err != nil {
					fmt.Fprintf(out, "change feed unavailable: %v\n", err)
				}

				interval := time.Duration(cfg.Engine.ReplayInterval) * time.Second
				if interval <= 0 {
					interval = 30 * time.Second
				}
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for {
					select {
					case <-signalCtx.Done():
						fmt.Fprintln(out, "stopping")
						return nil
					case <-ticker.C:
						if sess.Engine().PendingCount() == 0 {
							continue
						}
						report, err := sess.Engine().ReplayPending(signalCtx)
						if err != nil {
							fmt.Fprintf(out, "replay failed: %v\n", err)
							continue
						}
						if report.Attempted > 0 {
							fmt.Fprintf(out, "replayed %d, discarded %d, remaining %d\n",
								report.Replayed, report.Discarded, report.Remaining)
						}
					}
				}
			})
		},
	}
}
