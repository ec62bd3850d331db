package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/database"
)

func newDBCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database helpers",
	}

	var timeout time.Duration
	ping := &cobra.Command{
		Use:   "ping",
		Short: "Check the default connection of a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, t, err := opts.started(cmd.Context())
			if err != nil {
				return err
			}
			db, err := container.Resolve[*database.DB](cmd.Context(), t.Container, bootstrap.ServiceDB)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", db.Driver())
			return err
		},
	}
	ping.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "ping timeout")

	cmd.AddCommand(ping)
	return cmd
}
