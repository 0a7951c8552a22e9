package auth

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/pkg/middleware"
	"google.golang.org/grpc/metadata"
)

// GetStoreID returns the caller's store from the interceptor-populated context,
// falling back to raw gRPC metadata.
func GetStoreID(ctx context.Context) string {
	return lookup(ctx, middleware.StoreIDKey, "x-store-id")
}

func GetUserID(ctx context.Context) string {
	return lookup(ctx, middleware.UserIDKey, "x-user-id")
}

// GetLocale returns the Accept-Language value, or "" for the default locale.
func GetLocale(ctx context.Context) string {
	return lookup(ctx, middleware.LocaleKey, "accept-language")
}

func lookup(ctx context.Context, key interface{}, header string) string {
	if val, ok := ctx.Value(key).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(header); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
