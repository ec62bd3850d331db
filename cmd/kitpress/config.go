package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kitpress-go/framework/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect tenant configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <path>",
		Short: "Print the merged value at a dot path, e.g. app.log.level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd.Context())
			if err != nil {
				return err
			}

			t, err := app.Tenant(opts.roots[0])
			if err != nil {
				return err
			}

			path := args[0]
			if err := t.Config.Load(config.SplitKey(path)[0]); err != nil {
				return err
			}
			if !t.Config.Has(path) {
				return fmt.Errorf("%s is not set", path)
			}

			out, err := yaml.Marshal(t.Config.Get(path))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cmd
}
