package utils

import (
	"context"

	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyStoreCode     = appctx.ContextKeyStoreCode
	ContextKeyUserName      = appctx.ContextKeyUserName
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetStoreCodeFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyStoreCode)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetStoreCodeInContext(ctx context.Context, storeCode string) context.Context {
	return appctx.Set(ctx, ContextKeyStoreCode, storeCode)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
