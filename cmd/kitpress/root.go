package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	kitpress "github.com/kitpress-go/framework"
	"github.com/kitpress-go/framework/internal/tenant"
)

var errNoRoot = errors.New("at least one --root is required")

type options struct {
	roots []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "kitpress",
		Short: "Serve and inspect Kitpress tenants",
		Long: `kitpress runs several tenants in one process. Each tenant is an install
root with its own config, services and routes, mounted under /<namespace>.`,
		Version:      kitpress.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(`{{printf "kitpress version %s\n" .Version}}`)
	cmd.PersistentFlags().StringArrayVarP(&opts.roots, "root", "r", nil, "tenant install root (repeatable)")

	cmd.AddCommand(
		newServeCmd(opts),
		newConfigCmd(opts),
		newServicesCmd(opts),
		newCronCmd(opts),
		newDBCmd(opts),
	)
	return cmd
}

// app registers every --root.
func (o *options) app(ctx context.Context) (*kitpress.App, error) {
	if len(o.roots) == 0 {
		return nil, errNoRoot
	}
	return kitpress.New(ctx, o.roots...)
}

// started registers the tenants and starts the one at the first --root.
func (o *options) started(ctx context.Context) (*kitpress.App, *tenant.Tenant, error) {
	app, err := o.app(ctx)
	if err != nil {
		return nil, nil, err
	}

	t, err := app.Tenant(o.roots[0])
	if err != nil {
		return nil, nil, err
	}
	if err := t.Lifecycle(app.Bootstrap()).Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("starting %s: %w", t.Namespace, err)
	}
	return app, t, nil
}
