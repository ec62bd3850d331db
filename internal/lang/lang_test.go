package lang

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/kitpress-go/framework/internal/fatal"
)

var _ fatal.Translator = (*Translator)(nil)

func TestTranslator_BuiltinCatalogs(t *testing.T) {
	tr, err := New("", "")
	require.NoError(t, err)

	require.Equal(t, "en", tr.Locale())
	require.Equal(t, "Site unavailable", tr.T("fatal.bootstrap.title"))
	require.Equal(t, "Welcome, Ada!", tr.T("welcome", map[string]string{"name": "Ada"}))
	require.Equal(t, "no.such.key", tr.T("no.such.key"))
	require.False(t, tr.Has("no.such.key"))
	require.Equal(t, []string{"en", "de"}, tr.Locales())
}

func TestTranslator_FallbackLocale(t *testing.T) {
	overrides := fstest.MapFS{
		"de.yaml": {Data: []byte("only_en_missing: nur deutsch\n")},
		"en.yaml": {Data: []byte("english_only: english\n")},
	}
	tr, err := New("de", "en", overrides)
	require.NoError(t, err)

	require.Equal(t, "Fehler", tr.T("fatal.default.title"))
	require.Equal(t, "english", tr.T("english_only"))
	require.Equal(t, "nur deutsch", tr.T("only_en_missing"))
}

func TestTranslator_OverridesMergeKeyByKey(t *testing.T) {
	overrides := fstest.MapFS{
		"en.json": {Data: []byte(`{"fatal": {"bootstrap": {"title": "Down for maintenance"}}}`)},
		"README":  {Data: []byte("ignored")},
	}
	tr, err := New("en", "en", overrides)
	require.NoError(t, err)

	require.Equal(t, "Down for maintenance", tr.T("fatal.bootstrap.title"))
	require.Equal(t, "The site could not be started. Please try again later.", tr.T("fatal.bootstrap.message"))
}

func TestTranslator_InvalidCatalog(t *testing.T) {
	_, err := New("en", "en", fstest.MapFS{"en.yaml": {Data: []byte("- a\n- b\n")}})
	require.Error(t, err)
}

func TestTranslator_SetLocale(t *testing.T) {
	tr, err := New("en", "en")
	require.NoError(t, err)

	require.NoError(t, tr.SetLocale("de"))
	require.Equal(t, "Übersicht", tr.T("admin.menu.dashboard"))
	require.ErrorIs(t, tr.SetLocale("xx"), ErrUnknownLocale)
	require.Equal(t, "de", tr.Locale())
}

func TestTranslator_Match(t *testing.T) {
	tr, err := New("en", "en")
	require.NoError(t, err)

	tests := map[string]string{
		"de-CH,de;q=0.9,en;q=0.8": "de",
		"en-GB":                   "en",
		"fr-FR":                   "en",
		"":                        "en",
	}
	for header, want := range tests {
		t.Run(header, func(t *testing.T) {
			require.Equal(t, want, tr.Match(header))
		})
	}
}

func TestTranslator_Placeholders(t *testing.T) {
	tr, err := New("en", "en", fstest.MapFS{
		"en.yaml": {Data: []byte("greeting: \":user is :username\"\n")},
	})
	require.NoError(t, err)

	got := tr.T("greeting", map[string]string{"user": "A", "username": "ada"})
	require.Equal(t, "A is ada", got)
}

func TestTranslator_TContext(t *testing.T) {
	tr, err := New("en", "en")
	require.NoError(t, err)

	ctx := WithLocale(context.Background(), "de")
	require.Equal(t, "Fehler", tr.TContext(ctx, "fatal.default.title"))
	require.Equal(t, "Error", tr.TContext(context.Background(), "fatal.default.title"))
}

func TestForRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lang"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lang", "en.yaml"), []byte("welcome: Hi :name\n"), 0o644))

	tr, err := ForRoot(root, "en", "en")
	require.NoError(t, err)
	require.Equal(t, "Hi Bo", tr.T("welcome", map[string]string{"name": "Bo"}))

	tr, err = ForRoot(t.TempDir(), "", "")
	require.NoError(t, err)
	require.Equal(t, "Welcome, Bo!", tr.T("welcome", map[string]string{"name": "Bo"}))
}

func TestFatalFromErrorUsesCatalog(t *testing.T) {
	tr, err := New("de", "en")
	require.NoError(t, err)

	fe := fatal.FromError(os.ErrNotExist, tr)
	require.Equal(t, "Fehler", fe.Title)
}
