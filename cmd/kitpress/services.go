package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newServicesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the bindings of a tenant in initialization order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, t, err := opts.started(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"ID", "KIND", "SINGLETON", "PRIORITY", "DEPENDENCIES", "RESOLVED"})
			for _, b := range t.Container.OrderedBindings() {
				tw.AppendRow(table.Row{
					b.ID,
					b.Kind(),
					yesNo(b.Singleton),
					b.Priority,
					strings.Join(b.Dependencies, ", "),
					yesNo(t.Container.Resolved(b.ID)),
				})
			}
			tw.Render()
			return nil
		},
	}
}

func newTable(cmd *cobra.Command) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatUpper
	return tw
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
