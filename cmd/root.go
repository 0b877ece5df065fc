// Package cmd holds the command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-sentiment/clients"
	cfg "github.com/maastricht-university/speech-sentiment/config"
	"github.com/maastricht-university/speech-sentiment/logging"
	"github.com/maastricht-university/speech-sentiment/orchestrator"
	"github.com/maastricht-university/speech-sentiment/store"
)

type app struct {
	configPath string
	logLevel   string

	conf *cfg.Root
	log  *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "speech-sentiment",
		Short:         "Transcribe, score and voice short clips and texts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config.yaml (default: search config/<CONFIG_ENV>/config.yaml, config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override app.log_level")

	root.AddCommand(
		newServeCmd(a),
		newProcessCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	conf, err := cfg.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		conf.App.LogLevel = a.logLevel
	}
	a.conf = conf
	a.log = logging.New(conf.App.LogLevel, conf.App.LogFormat)
	return nil
}

func (a *app) store() (*store.Store, error) {
	return store.New(a.conf.Store.Dir)
}

// pipeline wires providers, store and orchestrator. The caller closes the
// returned providers.
func (a *app) pipeline(ctx context.Context) (*orchestrator.Pipeline, *store.Store, *clients.Providers, error) {
	st, err := a.store()
	if err != nil {
		return nil, nil, nil, err
	}
	providers, err := clients.New(ctx, a.conf, a.log)
	if err != nil {
		return nil, nil, nil, err
	}
	return orchestrator.NewPipeline(providers, st, a.log), st, providers, nil
}
