package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stepProvider struct {
	name  string
	steps *[]string
}

func (p stepProvider) Register(ctx context.Context, c *Container) error {
	*p.steps = append(*p.steps, "register:"+p.name)
	return c.Instance(ctx, p.name, p.name)
}

func (p stepProvider) Boot(ctx context.Context, c *Container) error {
	*p.steps = append(*p.steps, "boot:"+p.name)
	return nil
}

func TestContainer_RegisterProviders(t *testing.T) {
	c := New("")
	var steps []string

	err := c.RegisterProviders(context.Background(),
		stepProvider{name: "a", steps: &steps},
		stepProvider{name: "b", steps: &steps},
	)
	require.NoError(t, err)
	require.Equal(t, []string{"register:a", "register:b", "boot:a", "boot:b"}, steps)
	require.True(t, c.Has("a"))
	require.True(t, c.Has("b"))
}
