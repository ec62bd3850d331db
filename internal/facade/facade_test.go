package facade

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kitpress-go/framework/internal/container"
)

type greeter struct {
	tenant string
}

func (g *greeter) Greet(name string) string {
	return fmt.Sprintf("%s greets %s", g.tenant, name)
}

func (g *greeter) Join(sep string, parts ...string) (string, int) {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out, len(parts)
}

func (g *greeter) Describe(v any) string {
	return fmt.Sprintf("%v", v)
}

func tenantContainer(t *testing.T, ns string) *container.Container {
	t.Helper()
	c := container.New(ns)
	require.NoError(t, c.Instance(context.Background(), "greeter", &greeter{tenant: ns}))
	return c
}

func TestFacade_NoActiveNamespace(t *testing.T) {
	r := NewRegistry()
	f := New[*greeter]("greeter").WithRegistry(r)

	root, err := f.Root(context.Background())
	require.ErrorIs(t, err, ErrNamespaceNotRegistered)
	require.Nil(t, root)

	_, err = f.Call(context.Background(), "Greet", "bob")
	require.ErrorIs(t, err, ErrNamespaceNotRegistered)
	require.Panics(t, func() { f.Must(context.Background()) })
}

func TestFacade_SwitchesActiveTenant(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	a := tenantContainer(t, "a")
	b := tenantContainer(t, "b")
	f := New[*greeter]("greeter").WithRegistry(r)

	r.SetContainer(a)
	r.SetContainer(b)
	require.Equal(t, "b", f.Must(ctx).tenant)

	require.NoError(t, r.UseNamespace("a"))
	require.Equal(t, "a", f.Must(ctx).tenant)

	current, ok := r.Current()
	require.True(t, ok)
	require.Equal(t, "a", current)
	require.Equal(t, []string{"a", "b"}, r.Namespaces())
}

func TestRegistry_UseNamespaceUnknown(t *testing.T) {
	r := NewRegistry()
	r.SetContainer(tenantContainer(t, "a"))

	require.ErrorIs(t, r.UseNamespace("missing"), ErrNamespaceNotRegistered)

	current, _ := r.Current()
	require.Equal(t, "a", current)
}

func TestRegistry_SetContainerWithExplicitNamespace(t *testing.T) {
	r := NewRegistry()
	c := tenantContainer(t, "a")
	r.SetContainer(c, "alias")

	got, ok := r.Lookup("alias")
	require.True(t, ok)
	require.Same(t, c, got)

	_, ok = r.Lookup("a")
	require.False(t, ok)
}

func TestRegistry_ContextNamespaceWins(t *testing.T) {
	r := NewRegistry()
	r.SetContainer(tenantContainer(t, "a"))
	r.SetContainer(tenantContainer(t, "b"))
	f := New[*greeter]("greeter").WithRegistry(r)

	ctx := WithNamespace(context.Background(), "a")
	require.Equal(t, "a", f.Must(ctx).tenant)
	require.Equal(t, "b", f.Must(context.Background()).tenant)

	_, err := f.Root(WithNamespace(context.Background(), "missing"))
	require.ErrorIs(t, err, ErrNamespaceNotRegistered)

	ns, ok := NamespaceFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "a", ns)
}

func TestRegistry_ConcurrentRequestsStayIsolated(t *testing.T) {
	r := NewRegistry()
	r.SetContainer(tenantContainer(t, "a"))
	r.SetContainer(tenantContainer(t, "b"))
	f := New[*greeter]("greeter").WithRegistry(r)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 64 {
		ns := "a"
		if i%2 == 1 {
			ns = "b"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := f.Root(WithNamespace(context.Background(), ns))
			if err != nil {
				errs <- err
				return
			}
			if g.tenant != ns {
				errs <- fmt.Errorf("request for %s saw %s", ns, g.tenant)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}

func TestFacade_Call(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	r.SetContainer(tenantContainer(t, "shop"))
	f := New[any]("greeter").WithRegistry(r)

	out, err := f.Call(ctx, "Greet", "bob")
	require.NoError(t, err)
	require.Equal(t, []any{"shop greets bob"}, out)

	out, err = f.Call(ctx, "Join", "-", "a", "b", "c")
	require.NoError(t, err)
	require.Equal(t, []any{"a-b-c", 3}, out)

	out, err = f.Call(ctx, "Join", ",")
	require.NoError(t, err)
	require.Equal(t, []any{"", 0}, out)

	out, err = f.Call(ctx, "Describe", nil)
	require.NoError(t, err)
	require.Equal(t, []any{"<nil>"}, out)

	_, err = f.Call(ctx, "Missing")
	require.ErrorIs(t, err, ErrMethodNotFound)

	_, err = f.Call(ctx, "Greet")
	require.ErrorIs(t, err, ErrInvalidArguments)

	_, err = f.Call(ctx, "Greet", 42)
	require.ErrorIs(t, err, ErrInvalidArguments)
}

func TestFacade_WrongServiceType(t *testing.T) {
	r := NewRegistry()
	r.SetContainer(tenantContainer(t, "shop"))

	_, err := New[string]("greeter").WithRegistry(r).Root(context.Background())
	require.ErrorIs(t, err, container.ErrUnexpectedType)
}

func TestDefaultRegistry(t *testing.T) {
	t.Cleanup(Reset)

	_, err := Container(context.Background())
	require.ErrorIs(t, err, ErrNamespaceNotRegistered)

	c := tenantContainer(t, "blog")
	SetContainer(c)
	got, err := Container(context.Background())
	require.NoError(t, err)
	require.Same(t, c, got)
	require.NoError(t, UseNamespace("blog"))
	require.Same(t, defaultRegistry, Default())
}
