package tenant

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/facade"
)

func newRegistry() (*Registry, *facade.Registry) {
	facades := facade.NewRegistry()
	return NewRegistry(container.NewRegistry(), facades), facades
}

func TestNamespaceFromPath(t *testing.T) {
	tests := map[string]string{
		"/srv/plugins/My-Shop":      "my_shop",
		"/srv/plugins/blog":         "blog",
		"/srv/plugins/Acme  Store!": "acme_store_",
		"/srv/plugins/v2.shop/":     "v2_shop",
		"relative/Path":             "path",
		"/":                         "",
	}
	for root, want := range tests {
		t.Run(root, func(t *testing.T) {
			require.Equal(t, want, NamespaceFromPath(root))
		})
	}
}

func TestNamespaceFromPath_Properties(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9_]*$`)

	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z0-9 ._\-]{1,16}`).Draw(t, "name")
		if name == "." || name == ".." {
			t.Skip("not a directory name")
		}

		ns := NamespaceFromPath(filepath.Join("/srv/plugins", name))
		if !valid.MatchString(ns) {
			t.Fatalf("namespace %q has invalid characters", ns)
		}
		if again := NamespaceFromPath(filepath.Join("/srv", ns)); ns != "" && again != ns {
			t.Fatalf("namespace %q is not stable: %q", ns, again)
		}
	})
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()
	r, facades := newRegistry()
	root := filepath.Join(t.TempDir(), "Shop")
	require.NoError(t, os.MkdirAll(root, 0o755))

	shop, err := r.Register(ctx, root)
	require.NoError(t, err)
	require.Equal(t, "shop", shop.Namespace)
	require.Equal(t, "shop", shop.Container.Namespace())

	current, _ := facades.Current()
	require.Equal(t, "shop", current)

	ns, ok := r.Namespace(root)
	require.True(t, ok)
	require.Equal(t, "shop", ns)

	boundRoot, err := container.Resolve[string](ctx, shop.Container, bootstrap.ServiceRoot)
	require.NoError(t, err)
	require.Equal(t, root, boundRoot)
	require.True(t, shop.Container.Has(bootstrap.ServiceConfig))

	again, err := r.Register(ctx, root)
	require.NoError(t, err)
	require.Same(t, shop, again)
}

func TestRegistry_NamespaceConflict(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry()

	_, err := r.Register(ctx, filepath.Join(t.TempDir(), "my-shop"))
	require.NoError(t, err)

	_, err = r.Register(ctx, filepath.Join(t.TempDir(), "My_Shop"))
	require.ErrorIs(t, err, ErrNamespaceConflict)
	require.Len(t, r.Tenants(), 1)
}

func TestRegistry_UseNamespace(t *testing.T) {
	ctx := context.Background()
	r, facades := newRegistry()
	base := t.TempDir()

	shop, err := r.Register(ctx, filepath.Join(base, "shop"))
	require.NoError(t, err)
	blog, err := r.Register(ctx, filepath.Join(base, "blog"))
	require.NoError(t, err)

	c, err := facades.Container(ctx)
	require.NoError(t, err)
	require.Same(t, blog.Container, c)

	require.NoError(t, r.UseNamespace("shop"))
	c, err = facades.Container(ctx)
	require.NoError(t, err)
	require.Same(t, shop.Container, c)

	require.ErrorIs(t, r.UseNamespace("missing"), ErrTenantNotFound)

	got, err := r.Container("blog")
	require.NoError(t, err)
	require.Same(t, blog.Container, got)

	tenants := r.Tenants()
	require.Len(t, tenants, 2)
	require.Equal(t, "blog", tenants[0].Namespace)
	require.Equal(t, "shop", tenants[1].Namespace)
}

func TestTenant_LifecycleUsesRootOverrides(t *testing.T) {
	ctx := context.Background()
	containers := container.NewRegistry()
	facades := facade.NewRegistry()
	r := NewRegistry(containers, facades)
	b := bootstrap.New(containers, facades)

	root := filepath.Join(t.TempDir(), "shop")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "app.yaml"), []byte("name: Corner Shop\n"), 0o644))

	shop, err := r.Register(ctx, root)
	require.NoError(t, err)
	require.NoError(t, shop.Lifecycle(b).Start(ctx))

	require.Equal(t, "Corner Shop", shop.Config.GetString("app.name"))
}
