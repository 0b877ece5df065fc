package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-sentiment/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload page and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.conf.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, st, providers, err := a.pipeline(ctx)
			if err != nil {
				return err
			}
			defer providers.Close()

			a.log.WithField("store", st.Dir()).Info("artifact store ready")
			return server.New(a.conf.Server, p, st, a.log).Run(ctx)
		},
	}
	c.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return c
}
