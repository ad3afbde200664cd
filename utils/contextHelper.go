package utils

import (
	"context"

	"github.com/akkupratap323/warehouse-inventory/appctx"
)

var (
	ContextKeyUserName      = appctx.ContextKeyUserName
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyRequestSource = appctx.ContextKeyRequestSource
)

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetRequestSourceFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRequestSource)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetRequestSourceInContext(ctx context.Context, source string) context.Context {
	return appctx.Set(ctx, ContextKeyRequestSource, source)
}
