package fatal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type catalog map[string]string

func (c catalog) T(key string, _ ...map[string]string) string {
	if text, ok := c[key]; ok {
		return text
	}
	return key
}

type keyedError struct{}

func (keyedError) Error() string    { return "bootstrap exploded" }
func (keyedError) FatalKey() string { return "bootstrap" }

func TestFromError(t *testing.T) {
	tr := catalog{
		"fatal.bootstrap.title":   "Configuration error",
		"fatal.bootstrap.message": "The plugin could not start.",
		"fatal.default.title":     "Something went wrong",
	}

	require.Nil(t, FromError(nil, tr))

	existing := New(http.StatusNotFound, "Missing", "Nothing here")
	require.Same(t, existing, FromError(fmt.Errorf("wrapped: %w", existing), tr))

	boot := FromError(fmt.Errorf("start: %w", keyedError{}), tr)
	require.Equal(t, "Configuration error", boot.Title)
	require.Equal(t, "The plugin could not start.", boot.Message)
	require.Equal(t, http.StatusInternalServerError, boot.Status)
	require.ErrorIs(t, boot, boot.Cause)

	plain := FromError(errors.New("boom"), tr)
	require.Equal(t, "Something went wrong", plain.Title)
	require.Equal(t, "The request could not be completed.", plain.Message)

	untranslated := FromError(errors.New("boom"), nil)
	require.Equal(t, "Error", untranslated.Title)
}

func TestError(t *testing.T) {
	cause := errors.New("db down")
	e := &Error{Title: "Oops", Status: 500, Cause: cause}

	require.Equal(t, "[500] Oops: db down", e.Error())
	require.ErrorIs(t, e, cause)
	require.Equal(t, "[404] Missing", New(404, "Missing", "").Error())
}

func TestHTMLSink(t *testing.T) {
	e := &Error{Title: "Stop <now>", Message: "Cannot continue", Status: http.StatusServiceUnavailable, Cause: errors.New("secret")}

	rec := httptest.NewRecorder()
	HTMLSink{}.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), e)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "Stop &lt;now&gt;")
	require.Contains(t, rec.Body.String(), "Cannot continue")
	require.NotContains(t, rec.Body.String(), "secret")

	rec = httptest.NewRecorder()
	HTMLSink{Debug: true}.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), e)
	require.Contains(t, rec.Body.String(), "secret")
}

func TestHTMLSink_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	HTMLSink{}.Render(rec, req, &Error{Title: "Oops", Message: "Bad"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Oops", body["error"]["title"])
	require.EqualValues(t, 500, body["error"]["status_code"])
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	rendered := false

	sink := LogSink{
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
		Next: SinkFunc(func(w http.ResponseWriter, r *http.Request, e *Error) {
			rendered = true
		}),
	}
	sink.Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/shop", nil),
		&Error{Title: "Oops", Status: 500, Cause: errors.New("boom")})

	require.True(t, rendered)
	require.Contains(t, buf.String(), `"msg":"request halted"`)
	require.Contains(t, buf.String(), `"error":"boom"`)
	require.Contains(t, buf.String(), `"path":"/shop"`)
}
