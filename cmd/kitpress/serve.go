package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kitpress-go/framework/internal/logging"
	"github.com/kitpress-go/framework/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every tenant over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app, err := opts.app(ctx)
			if err != nil {
				return err
			}

			cfg := app.Bootstrap().Config()
			logger, err := logging.New(logging.Config{
				Level:       cfg.GetString("app.log.level", "info"),
				Format:      cfg.GetString("app.log.format", "json"),
				Output:      cfg.GetString("app.log.output", "stderr"),
				SentryDSN:   cfg.GetString("app.log.sentry_dsn"),
				Environment: cfg.GetString("app.env"),
			}, logging.DefaultExtractors()...)
			if err != nil {
				return err
			}
			defer logger.Close()

			return app.Server(ctx, server.WithLogger(logger.Logger)).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
