package container

import "context"

// ServiceProvider registers a group of related bindings and wires them once
// all providers are registered.
type ServiceProvider interface {
	Register(ctx context.Context, c *Container) error
	Boot(ctx context.Context, c *Container) error
}

// RegisterProviders registers every provider, then boots them in the same
// order.
func (c *Container) RegisterProviders(ctx context.Context, providers ...ServiceProvider) error {
	for _, provider := range providers {
		if err := provider.Register(ctx, c); err != nil {
			return err
		}
	}
	for _, provider := range providers {
		if err := provider.Boot(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
