// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/unitystation/centralcommand/internal/accounts"
)

type ctxKey int

const (
	langKey ctxKey = iota
	accountKey
	tokenKey
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// routePattern returns the matched chi pattern, e.g. /accounts/me.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// requestLogger logs one line per request. 5xx responses log at error,
// 4xx and slow requests at warn.
func requestLogger(logger *slog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			if requestID != "" {
				ww.Header().Set("X-Request-ID", requestID)
			}

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)

			trace.SpanFromContext(r.Context()).SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", status),
			)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("bytes", ww.BytesWritten()),
			}

			level, msg := slog.LevelInfo, "request completed"
			switch {
			case status >= http.StatusInternalServerError:
				level, msg = slog.LevelError, "request failed"
			case status >= http.StatusBadRequest:
				level, msg = slog.LevelWarn, "request error"
			case elapsed > slow:
				level, msg = slog.LevelWarn, "slow request"
			}
			logger.LogAttrs(r.Context(), level, msg, attrs...)
		})
	}
}

// observe reports each request to o. A nil o disables it.
func observe(o Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if o == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			o.ObserveHTTP(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}

// language stores the best catalog language for Accept-Language.
func (h *handler) language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := h.translator.Match(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", tag.String())
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), langKey, tag)))
	})
}

func langFrom(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(langKey).(language.Tag); ok {
		return tag
	}
	return language.English
}

// allowedHosts rejects requests whose Host header matches no pattern.
func (h *handler) allowedHosts(patterns []glob.Glob) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(r.Host, patterns) {
				h.writeError(w, r, oops.Code("HOST_NOT_ALLOWED").With("host", r.Host).Errorf("host not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// compileHosts turns allowed hosts into globs over dot-separated labels:
//   - "*" becomes "**" and matches any host
//   - ".example.com" matches example.com and every subdomain
//   - anything else matches literally
func compileHosts(allowed []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(allowed))
	for _, host := range allowed {
		host = strings.ToLower(strings.TrimSpace(host))
		var pattern string
		switch {
		case host == "*":
			pattern = "**"
		case strings.HasPrefix(host, "."):
			domain := glob.QuoteMeta(host[1:])
			pattern = "{" + domain + ",**." + domain + "}"
		default:
			pattern = glob.QuoteMeta(host)
		}
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, oops.Code("API_CONFIG_INVALID").With("allowed_host", host).Wrap(err)
		}
		out = append(out, g)
	}
	return out, nil
}

func hostAllowed(host string, patterns []glob.Glob) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, g := range patterns {
		if g.Match(host) {
			return true
		}
	}
	return false
}

// tokenAuth requires an "Authorization: Token <token>" header and stores
// the authenticated account and token in the request context.
func (h *handler) tokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := tokenFromHeader(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", "Token")
			h.writeError(w, r, oops.Code("AUTH_REQUIRED").Errorf("missing or malformed authorization header"))
			return
		}
		account, authToken, err := h.accounts.Authenticate(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Token")
			h.writeError(w, r, err)
			return
		}
		trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("enduser.id", account.ID.String()))

		ctx := context.WithValue(r.Context(), accountKey, account)
		ctx = context.WithValue(ctx, tokenKey, authToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func accountFrom(ctx context.Context) *accounts.Account {
	a, _ := ctx.Value(accountKey).(*accounts.Account)
	return a
}

func tokenFrom(ctx context.Context) *accounts.AuthToken {
	t, _ := ctx.Value(tokenKey).(*accounts.AuthToken)
	return t
}
