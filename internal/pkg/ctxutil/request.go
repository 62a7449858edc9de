package ctxutil

import (
	"context"
	"strings"
)

// SystemActor is recorded in audit columns when no caller identity is attached.
const SystemActor = "system"

type requestDataKey struct{}

type RequestData struct {
	RequestID string
	Actor     string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// WithActor returns a child context whose audit actor is actor, keeping any request id.
func WithActor(ctx context.Context, actor string) context.Context {
	rd := RequestData{}
	if cur := GetRequestData(ctx); cur != nil {
		rd = *cur
	}
	rd.Actor = strings.TrimSpace(actor)
	return WithRequestData(ctx, &rd)
}

// Actor returns the audit actor for ctx, or SystemActor.
func Actor(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil && rd.Actor != "" {
		return rd.Actor
	}
	return SystemActor
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func RequestID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.RequestID
	}
	return ""
}
