package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/scheduler"
)

func newCronCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Inspect and run scheduled jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the scheduled jobs of a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, t, err := opts.started(cmd.Context())
			if err != nil {
				return err
			}
			sched, err := container.Resolve[*scheduler.Scheduler](cmd.Context(), t.Container, bootstrap.ServiceScheduler)
			if err != nil {
				return err
			}

			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"NAME", "SCHEDULE", "NEXT RUN"})
			for _, job := range sched.Jobs() {
				next := "-"
				if !job.NextRun.IsZero() {
					next = job.NextRun.Format(time.RFC3339)
				}
				tw.AppendRow(table.Row{job.Name, job.Spec, next})
			}
			tw.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <job>",
		Short: "Run a job once, now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := opts.started(cmd.Context())
			if err != nil {
				return err
			}
			sched, err := container.Resolve[*scheduler.Scheduler](cmd.Context(), t.Container, bootstrap.ServiceScheduler)
			if err != nil {
				return err
			}
			return sched.Run(cmd.Context(), args[0])
		},
	})
	return cmd
}
