package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/observability"
	"github.com/rl1809/storefront/internal/port"
)

type ctxKey int

const (
	callerKey ctxKey = iota
	identityKey
)

func withCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func withIdentity(ctx context.Context, ext domain.ExternalIdentity) context.Context {
	return context.WithValue(ctx, identityKey, ext)
}

func identityFrom(ctx context.Context) domain.ExternalIdentity {
	ext, _ := ctx.Value(identityKey).(domain.ExternalIdentity)
	return ext
}

// CallerFrom returns the caller stored by the auth middleware or interceptor.
func CallerFrom(ctx context.Context) domain.Caller {
	caller, _ := ctx.Value(callerKey).(domain.Caller)
	return caller
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// AuthMiddleware resolves the bearer token into a Caller once per request.
func AuthMiddleware(resolver port.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ext, err := resolver.ResolveExternalIdentity(r.Context(), bearerToken(r.Header.Get("Authorization")))
			if err != nil {
				respondError(w, err)
				return
			}
			caller, err := resolver.EnsureLocalCustomer(r.Context(), ext)
			if err != nil {
				respondError(w, err)
				return
			}
			ctx := withIdentity(withCaller(r.Context(), caller), ext)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects non-admin callers before the handler runs.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := CallerFrom(r.Context()).RequireAdmin(); err != nil {
			respondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccessLog logs one line per request and records request metrics by route
// pattern.
func AccessLog(logger *zap.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)

			metrics.Requests.WithLabelValues("http", r.Method+" "+route, strconv.Itoa(status)).Inc()
			metrics.LatencyMS.WithLabelValues("http", r.Method+" "+route).Observe(float64(elapsed.Milliseconds()))

			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
			)
		})
	}
}
