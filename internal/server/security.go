package server

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/kitpress-go/framework/internal/config"
)

// SecurityConfig holds the response headers added to every request.
type SecurityConfig struct {
	ContentTypeOptions bool
	FrameOptions       string
	ReferrerPolicy     string
	HSTSMaxAge         int
	HSTSSubdomains     bool
	HSTSPreload        bool
	// CSP maps directives such as "script-src" to their sources.
	CSP map[string][]string
}

// SecurityConfigFrom reads app.security.
func SecurityConfigFrom(store *config.Store) SecurityConfig {
	cfg := SecurityConfig{
		ContentTypeOptions: store.GetBool("app.security.content_type_options", true),
		FrameOptions:       store.GetString("app.security.frame_options"),
		ReferrerPolicy:     store.GetString("app.security.referrer_policy"),
		HSTSMaxAge:         store.GetInt("app.security.hsts.max_age"),
		HSTSSubdomains:     store.GetBool("app.security.hsts.include_subdomains"),
		HSTSPreload:        store.GetBool("app.security.hsts.preload"),
		CSP:                make(map[string][]string),
	}
	for directive, sources := range store.Map("app.security.csp") {
		cfg.CSP[directive] = cast.ToStringSlice(sources)
	}
	return cfg
}

// SecurityHeaders sets the headers of cfg before calling next.
func SecurityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	headers := make(http.Header)
	if cfg.ContentTypeOptions {
		headers.Set("X-Content-Type-Options", "nosniff")
	}
	if cfg.FrameOptions != "" {
		headers.Set("X-Frame-Options", cfg.FrameOptions)
	}
	if cfg.ReferrerPolicy != "" {
		headers.Set("Referrer-Policy", cfg.ReferrerPolicy)
	}
	if cfg.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		headers.Set("Strict-Transport-Security", hsts)
	}
	if csp := buildCSP(cfg.CSP); csp != "" {
		headers.Set("Content-Security-Policy", csp)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for name, values := range headers {
				w.Header()[name] = values
			}
			next.ServeHTTP(w, r)
		})
	}
}

// buildCSP joins directives in sorted order.
func buildCSP(directives map[string][]string) string {
	names := make([]string, 0, len(directives))
	for name, sources := range directives {
		if len(sources) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+strings.Join(directives[name], " "))
	}
	return strings.Join(parts, "; ")
}
