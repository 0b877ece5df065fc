package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-sentiment/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var inbox string
	c := &cobra.Command{
		Use:   "watch",
		Short: "Process .wav files dropped into the inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inbox != "" {
				a.conf.Watcher.Inbox = inbox
				if err := a.conf.CheckInbox(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, _, providers, err := a.pipeline(ctx)
			if err != nil {
				return err
			}
			defer providers.Close()

			w, err := watcher.New(a.conf.Watcher.Inbox, p, a.log, a.conf.Watcher.MaxConcurrent)
			if err != nil {
				return err
			}
			defer w.Stop()

			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("watcher stopped")
			return nil
		},
	}
	c.Flags().StringVar(&inbox, "inbox", "", "inbox directory (overrides watcher.inbox)")
	return c
}
