package middleware

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	StoreIDKey ctxKey = "store_id"
	UserIDKey  ctxKey = "user_id"
	LocaleKey  ctxKey = "locale"
)

var headerKeys = map[string]ctxKey{
	"x-store-id":      StoreIDKey,
	"x-user-id":       UserIDKey,
	"accept-language": LocaleKey,
}

// ContextInterceptor copies well-known metadata headers into the request context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			for header, key := range headerKeys {
				if vals := md.Get(header); len(vals) > 0 && vals[0] != "" {
					ctx = context.WithValue(ctx, key, vals[0])
				}
			}
		}
		return handler(ctx, req)
	}
}

func LoggingInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
