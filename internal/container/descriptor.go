package container

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cast"
)

// Descriptor is the declarative form of a binding. Concrete takes precedence
// over Class when both are set; a nil Priority means DefaultPriority.
type Descriptor struct {
	Class        string
	Concrete     Concrete
	Singleton    bool
	Priority     *int
	Dependencies []string
}

func (d Descriptor) concrete() Concrete {
	if d.Concrete != nil {
		return d.Concrete
	}
	if d.Class != "" {
		return Class(d.Class)
	}
	return nil
}

func (d Descriptor) options() []Option {
	var opts []Option
	if d.Singleton {
		opts = append(opts, AsSingleton())
	}
	if d.Priority != nil {
		opts = append(opts, WithPriority(*d.Priority))
	}
	if len(d.Dependencies) > 0 {
		opts = append(opts, WithDependencies(d.Dependencies...))
	}
	return opts
}

// LoadConfig registers every descriptor, in sorted id order so priority ties
// are deterministic. It stops at the first failing binding.
func (c *Container) LoadConfig(ctx context.Context, descriptors map[string]Descriptor) error {
	for _, id := range slices.Sorted(maps.Keys(descriptors)) {
		d := descriptors[id]
		if err := c.Bind(ctx, id, d.concrete(), d.options()...); err != nil {
			return err
		}
	}
	return nil
}

// LoadServices registers descriptors read from a config tree shaped as
// id: {class, singleton, priority, dependencies}.
func (c *Container) LoadServices(ctx context.Context, tree map[string]any) error {
	descriptors, err := ParseDescriptors(tree)
	if err != nil {
		return err
	}
	return c.LoadConfig(ctx, descriptors)
}

// ParseDescriptors converts a services config tree into descriptors.
func ParseDescriptors(tree map[string]any) (map[string]Descriptor, error) {
	descriptors := make(map[string]Descriptor, len(tree))

	for id, raw := range tree {
		fields, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: service %s must be a mapping", ErrInvalidBinding, id)
		}

		d := Descriptor{Class: cast.ToString(fields["class"])}
		if d.Class == "" {
			return nil, fmt.Errorf("%w: service %s has no class", ErrInvalidBinding, id)
		}
		if v, ok := fields["singleton"]; ok {
			if d.Singleton, err = cast.ToBoolE(v); err != nil {
				return nil, fmt.Errorf("%w: service %s singleton: %v", ErrInvalidBinding, id, err)
			}
		}
		if v, ok := fields["priority"]; ok {
			priority, err := cast.ToIntE(v)
			if err != nil {
				return nil, fmt.Errorf("%w: service %s priority: %v", ErrInvalidBinding, id, err)
			}
			d.Priority = &priority
		}
		if v, ok := fields["dependencies"]; ok && v != nil {
			if d.Dependencies, err = cast.ToStringSliceE(v); err != nil {
				return nil, fmt.Errorf("%w: service %s dependencies: %v", ErrInvalidBinding, id, err)
			}
		}

		descriptors[id] = d
	}

	return descriptors, nil
}
