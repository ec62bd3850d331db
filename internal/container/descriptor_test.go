package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func priority(p int) *int {
	return &p
}

func TestContainer_LoadConfig(t *testing.T) {
	ctx := context.Background()
	c := New("shop")
	var order []string

	err := c.LoadConfig(ctx, map[string]Descriptor{
		"log":     {Concrete: recorder(&order, "log"), Singleton: true, Priority: priority(3)},
		"cache":   {Concrete: recorder(&order, "cache"), Singleton: true},
		"session": {Concrete: recorder(&order, "session"), Singleton: true, Priority: priority(12), Dependencies: []string{"cache"}},
	})
	require.NoError(t, err)

	cache, ok := c.Binding("cache")
	require.True(t, ok)
	require.Equal(t, DefaultPriority, cache.Priority)

	require.NoError(t, c.InitializeServices(ctx))
	require.Equal(t, []string{"log", "cache", "session"}, order)
}

func TestContainer_LoadConfigRejectsEmptyDescriptor(t *testing.T) {
	c := New("")
	err := c.LoadConfig(context.Background(), map[string]Descriptor{"broken": {}})
	require.ErrorIs(t, err, ErrInvalidBinding)
}

func TestContainer_LoadServices(t *testing.T) {
	t.Cleanup(ResetClasses)
	require.NoError(t, RegisterClass("mailer", func(deps ...any) (any, error) {
		return &service{name: "mailer", deps: deps}, nil
	}))

	ctx := context.Background()
	c := New("shop")
	require.NoError(t, c.Instance(ctx, "transport", "smtp"))

	err := c.LoadServices(ctx, map[string]any{
		"mailer": map[string]any{
			"class":        "mailer",
			"singleton":    true,
			"priority":     "15",
			"dependencies": []any{"transport"},
		},
	})
	require.NoError(t, err)

	binding, ok := c.Binding("mailer")
	require.True(t, ok)
	require.True(t, binding.Singleton)
	require.Equal(t, 15, binding.Priority)
	require.Equal(t, []string{"shop.transport"}, binding.Dependencies)

	mailer, err := Resolve[*service](ctx, c, "mailer")
	require.NoError(t, err)
	require.Equal(t, []any{"smtp"}, mailer.deps)
}

func TestParseDescriptors_Errors(t *testing.T) {
	tests := map[string]map[string]any{
		"not a mapping": {"svc": "mailer"},
		"missing class": {"svc": map[string]any{"singleton": true}},
		"bad priority":  {"svc": map[string]any{"class": "x", "priority": "high"}},
	}

	for name, tree := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDescriptors(tree)
			require.ErrorIs(t, err, ErrInvalidBinding)
		})
	}
}

func TestRegisterClass(t *testing.T) {
	t.Cleanup(ResetClasses)

	require.ErrorIs(t, RegisterClass("", value(1)), ErrInvalidBinding)
	require.ErrorIs(t, RegisterClass("x", nil), ErrInvalidBinding)
	require.NoError(t, RegisterClass("b", value(1)))
	require.NoError(t, RegisterClass("a", value(2)))
	require.Equal(t, []string{"a", "b"}, Classes())
}
