// Package lang translates user-facing strings. Catalogs are YAML or JSON
// documents named after their locale; tenant catalogs override the built-in
// ones key by key.
package lang

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"golang.org/x/text/language"

	"github.com/kitpress-go/framework/internal/config"
)

//go:embed locales
var localesFS embed.FS

// DefaultLocale is used when no locale is configured or matched.
const DefaultLocale = "en"

var ErrUnknownLocale = errors.New("lang: unknown locale")

// Translator holds one flattened catalog per locale.
type Translator struct {
	catalogs map[string]map[string]string
	locale   string
	fallback string
	tags     []language.Tag
	names    []string
	matcher  language.Matcher
	mutex    sync.RWMutex
}

// New loads the built-in catalogs, then the catalogs of each override file
// system in order. locale and fallback default to DefaultLocale.
func New(locale, fallback string, overrides ...fs.FS) (*Translator, error) {
	t := &Translator{
		catalogs: make(map[string]map[string]string),
		locale:   cmp.Or(locale, DefaultLocale),
		fallback: cmp.Or(fallback, DefaultLocale),
	}

	builtin, err := fs.Sub(localesFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("lang: embedded catalogs: %w", err)
	}
	if err := t.load(builtin); err != nil {
		return nil, err
	}
	for _, fsys := range overrides {
		if err := t.load(fsys); err != nil {
			return nil, err
		}
	}

	t.buildMatcher()
	return t, nil
}

func (t *Translator) load(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lang: %w", err)
	}

	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || !slices.Contains(config.Extensions, ext) {
			continue
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return fmt.Errorf("lang: %w", err)
		}
		tree, err := config.Parse(data, ext)
		if err != nil {
			return fmt.Errorf("lang: %s: %w", entry.Name(), err)
		}

		locale := strings.TrimSuffix(entry.Name(), ext)
		catalog := t.catalogs[locale]
		if catalog == nil {
			catalog = make(map[string]string)
			t.catalogs[locale] = catalog
		}
		for key, value := range config.Flatten(tree, "") {
			catalog[key] = cast.ToString(value)
		}
	}
	return nil
}

func (t *Translator) buildMatcher() {
	t.names = slices.Sorted(maps.Keys(t.catalogs))
	if i := slices.Index(t.names, t.fallback); i > 0 {
		t.names = slices.Insert(slices.Delete(t.names, i, i+1), 0, t.fallback)
	}

	t.tags = make([]language.Tag, len(t.names))
	for i, name := range t.names {
		t.tags[i] = language.Make(name)
	}
	t.matcher = language.NewMatcher(t.tags)
}

// Locale returns the active locale.
func (t *Translator) Locale() string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.locale
}

// SetLocale switches the active locale.
func (t *Translator) SetLocale(locale string) error {
	if !t.HasLocale(locale) {
		return fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	t.mutex.Lock()
	t.locale = locale
	t.mutex.Unlock()
	return nil
}

// HasLocale reports whether a catalog exists for locale.
func (t *Translator) HasLocale(locale string) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	_, exists := t.catalogs[locale]
	return exists
}

// Locales returns the available locales, fallback first.
func (t *Translator) Locales() []string {
	return slices.Clone(t.names)
}

// Match picks the best available locale for an Accept-Language header,
// or the fallback when nothing matches.
func (t *Translator) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}

	_, index, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.fallback
	}
	return t.names[index]
}

// T translates key in the active locale.
func (t *Translator) T(key string, replace ...map[string]string) string {
	return t.Translate(t.Locale(), key, replace...)
}

// TContext translates key in the locale carried by ctx, or the active one.
func (t *Translator) TContext(ctx context.Context, key string, replace ...map[string]string) string {
	locale, ok := LocaleFromContext(ctx)
	if !ok {
		locale = t.Locale()
	}
	return t.Translate(locale, key, replace...)
}

// Translate looks key up in locale, then in the fallback locale. A missing
// key is returned unchanged. ":name" placeholders are filled from replace.
func (t *Translator) Translate(locale, key string, replace ...map[string]string) string {
	t.mutex.RLock()
	text, found := t.catalogs[locale][key]
	if !found {
		text, found = t.catalogs[t.fallback][key]
	}
	t.mutex.RUnlock()

	if !found {
		return key
	}
	for _, r := range replace {
		text = substitute(text, r)
	}
	return text
}

// Has reports whether key exists in the active or fallback locale.
func (t *Translator) Has(key string) bool {
	return t.T(key) != key
}

// substitute replaces longer names first so ":username" is not split by
// ":user".
func substitute(text string, replace map[string]string) string {
	names := slices.SortedFunc(maps.Keys(replace), func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	for _, name := range names {
		text = strings.ReplaceAll(text, ":"+name, replace[name])
	}
	return text
}

type contextKey struct{}

// WithLocale returns a copy of ctx carrying a request locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, contextKey{}, locale)
}

// LocaleFromContext returns the locale stored by WithLocale.
func LocaleFromContext(ctx context.Context) (string, bool) {
	locale, ok := ctx.Value(contextKey{}).(string)
	return locale, ok && locale != ""
}

// ForRoot loads the built-in catalogs overridden by <root>/lang. An empty
// root loads only the built-in catalogs.
func ForRoot(root, locale, fallback string) (*Translator, error) {
	if root == "" {
		return New(locale, fallback)
	}
	return New(locale, fallback, os.DirFS(filepath.Join(root, "lang")))
}
