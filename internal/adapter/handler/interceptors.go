package handler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/observability"
	"github.com/rl1809/storefront/internal/port"
)

// AuthInterceptor resolves the bearer token in the authorization metadata.
// Methods outside the order service (health, reflection) pass through.
func AuthInterceptor(resolver port.IdentityResolver) grpc.UnaryServerInterceptor {
	prefix := "/" + orderServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				token = bearerToken(values[0])
			}
		}

		ext, err := resolver.ResolveExternalIdentity(ctx, token)
		if err != nil {
			return nil, toStatus(err)
		}
		caller, err := resolver.EnsureLocalCustomer(ctx, ext)
		if err != nil {
			return nil, toStatus(err)
		}
		return handler(withCaller(ctx, caller), req)
	}
}

func LoggingInterceptor(logger *zap.Logger, metrics *observability.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err)
		metrics.Requests.WithLabelValues("grpc", info.FullMethod, code.String()).Inc()
		metrics.LatencyMS.WithLabelValues("grpc", info.FullMethod).Observe(float64(elapsed.Milliseconds()))

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", elapsed),
		}
		if kind, _, ok := KindFromStatus(err); ok && kind == domain.KindStorageFailure {
			logger.Error("grpc request failed", append(fields, zap.Error(err))...)
			return resp, err
		}
		logger.Info("grpc request", fields...)
		return resp, err
	}
}
