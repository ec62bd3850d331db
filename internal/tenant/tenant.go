// Package tenant maps install roots to namespaces. Each tenant owns a
// container whose config documents are overridden from its root.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/config"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/facade"
)

var (
	ErrNamespaceConflict = errors.New("tenant: namespace already used by another root")
	ErrInvalidRoot       = errors.New("tenant: invalid root")
	ErrTenantNotFound    = errors.New("tenant: not found")
)

var invalidRun = regexp.MustCompile(`[^a-z0-9]+`)

// NamespaceFromPath derives a namespace from the base name of root:
// lower-cased, with every run of characters outside [a-z0-9] replaced by
// "_".
func NamespaceFromPath(root string) string {
	base := filepath.Base(filepath.Clean(root))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return invalidRun.ReplaceAllString(strings.ToLower(base), "_")
}

// Tenant is one registered install root.
type Tenant struct {
	Root      string
	Namespace string
	Container *container.Container
	Config    *config.Store
}

// Registry holds the tenants of a process.
type Registry struct {
	containers *container.Registry
	facades    *facade.Registry
	byRoot     map[string]*Tenant
	byNS       map[string]*Tenant
	mutex      sync.RWMutex
}

// NewRegistry creates a registry creating containers in containers and
// activating them in facades.
func NewRegistry(containers *container.Registry, facades *facade.Registry) *Registry {
	return &Registry{
		containers: containers,
		facades:    facades,
		byRoot:     make(map[string]*Tenant),
		byNS:       make(map[string]*Tenant),
	}
}

var defaultRegistry = NewRegistry(container.Default(), facade.Default())

// Default returns the registry over the process-wide container and facade
// registries.
func Default() *Registry {
	return defaultRegistry
}

// Register adds the tenant installed at root and makes it the active
// namespace. Registering a root again returns the existing tenant.
func (r *Registry) Register(ctx context.Context, root string) (*Tenant, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	ns := NamespaceFromPath(abs)
	if ns == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRoot, root)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if t, exists := r.byRoot[abs]; exists {
		r.facades.SetContainer(t.Container, t.Namespace)
		return t, nil
	}
	if other, exists := r.byNS[ns]; exists {
		return nil, fmt.Errorf("%w: %s (%s and %s)", ErrNamespaceConflict, ns, other.Root, abs)
	}

	c := r.containers.GetInstance(ns)
	store := config.New(config.WithOverrides(config.DirSource(abs)))
	if err := c.Instance(ctx, bootstrap.ServiceConfig, store); err != nil {
		return nil, err
	}
	if err := c.Instance(ctx, bootstrap.ServiceRoot, abs); err != nil {
		return nil, err
	}

	t := &Tenant{Root: abs, Namespace: ns, Container: c, Config: store}
	r.byRoot[abs] = t
	r.byNS[ns] = t
	r.facades.SetContainer(c, ns)

	return t, nil
}

// Namespace returns the namespace registered for root.
func (r *Registry) Namespace(root string) (string, bool) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	t, exists := r.byRoot[abs]
	if !exists {
		return "", false
	}
	return t.Namespace, true
}

// Tenant returns the tenant registered under namespace.
func (r *Registry) Tenant(namespace string) (*Tenant, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	t, exists := r.byNS[namespace]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrTenantNotFound, namespace)
	}
	return t, nil
}

// Container returns the container of the tenant registered under namespace.
func (r *Registry) Container(namespace string) (*container.Container, error) {
	t, err := r.Tenant(namespace)
	if err != nil {
		return nil, err
	}
	return t.Container, nil
}

// UseNamespace makes the tenant the process-wide active namespace.
func (r *Registry) UseNamespace(namespace string) error {
	if _, err := r.Tenant(namespace); err != nil {
		return err
	}
	return r.facades.UseNamespace(namespace)
}

// Tenants returns every tenant sorted by namespace.
func (r *Registry) Tenants() []*Tenant {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tenants := make([]*Tenant, 0, len(r.byNS))
	for _, ns := range slices.Sorted(maps.Keys(r.byNS)) {
		tenants = append(tenants, r.byNS[ns])
	}
	return tenants
}

// Lifecycle returns the bootstrap lifecycle of the tenant's container.
func (t *Tenant) Lifecycle(b *bootstrap.Bootstrap) *bootstrap.Lifecycle {
	return b.Boot(t.Container)
}

// Reset forgets every tenant. Containers stay in the container registry.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.byRoot = make(map[string]*Tenant)
	r.byNS = make(map[string]*Tenant)
}
