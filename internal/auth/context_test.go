package auth

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestGetStoreID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.StoreIDKey, "s1")
	assert.Equal(t, "s1", GetStoreID(ctx))

	md := metadata.Pairs("x-store-id", "s2", "x-user-id", "u9", "accept-language", "fil")
	ctx = metadata.NewIncomingContext(context.Background(), md)
	assert.Equal(t, "s2", GetStoreID(ctx))
	assert.Equal(t, "u9", GetUserID(ctx))
	assert.Equal(t, "fil", GetLocale(ctx))

	assert.Equal(t, "", GetUserID(context.Background()))
}
