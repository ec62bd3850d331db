package fatal

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Sink renders a fatal error and ends the response.
type Sink interface {
	Render(w http.ResponseWriter, r *http.Request, e *Error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(w http.ResponseWriter, r *http.Request, e *Error)

func (f SinkFunc) Render(w http.ResponseWriter, r *http.Request, e *Error) {
	f(w, r, e)
}

var stopPage = template.Must(template.New("stop").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f8f9fa; }
        .error-container { background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .error-code { color: #dc3545; font-size: 48px; font-weight: bold; margin-bottom: 10px; }
        .error-message { color: #495057; font-size: 24px; margin-bottom: 20px; }
        .debug-info { background: #fff3cd; padding: 15px; border-radius: 4px; margin-top: 20px; border-left: 4px solid #ffc107; font-family: monospace; }
    </style>
</head>
<body>
    <div class="error-container">
        <div class="error-code">{{.Status}}</div>
        <h1>{{.Title}}</h1>
        <div class="error-message">{{.Message}}</div>
        {{- if .Debug}}
        <div class="debug-info">{{.Debug}}</div>
        {{- end}}
    </div>
</body>
</html>
`))

// HTMLSink renders the stop page, or a JSON body for clients that accept
// application/json. With Debug set the cause is included.
type HTMLSink struct {
	Debug bool
}

func (s HTMLSink) Render(w http.ResponseWriter, r *http.Request, e *Error) {
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	var debug string
	if s.Debug && e.Cause != nil {
		debug = e.Cause.Error()
	}

	if r != nil && strings.Contains(r.Header.Get("Accept"), "application/json") {
		body := map[string]any{
			"error": map[string]any{
				"title":       e.Title,
				"message":     e.Message,
				"status_code": status,
				"timestamp":   time.Now().Format(time.RFC3339),
			},
		}
		if debug != "" {
			body["debug"] = debug
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = stopPage.Execute(w, struct {
		Title, Message, Debug string
		Status                int
	}{e.Title, e.Message, debug, status})
}

// LogSink logs the error, then renders it with Next.
type LogSink struct {
	Logger *slog.Logger
	Next   Sink
}

func (s LogSink) Render(w http.ResponseWriter, r *http.Request, e *Error) {
	if s.Logger != nil {
		attrs := []any{slog.Int("status", e.Status), slog.String("title", e.Title)}
		if e.Cause != nil {
			attrs = append(attrs, slog.String("error", e.Cause.Error()))
		}
		if r != nil {
			attrs = append(attrs, slog.String("path", r.URL.Path))
			s.Logger.ErrorContext(r.Context(), "request halted", attrs...)
		} else {
			s.Logger.Error("request halted", attrs...)
		}
	}

	if s.Next != nil {
		s.Next.Render(w, r, e)
	}
}
