package context

import (
	stdctx "context"
	"strings"
)

type requestIDKey struct{}
type clientIPKey struct{}
type actorKey struct{}

type actor struct {
	kind string
	id   string
}

// WithRequestID stores the inbound request id on the context.
func WithRequestID(ctx stdctx.Context, requestID string) stdctx.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return stdctx.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func WithClientIP(ctx stdctx.Context, ip string) stdctx.Context {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ctx
	}
	return stdctx.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(clientIPKey{}).(string)
	return value
}

// WithActor records who is acting on the request, e.g. ("dashboard", "<nonce prefix>").
func WithActor(ctx stdctx.Context, actorType, actorID string) stdctx.Context {
	return stdctx.WithValue(ctx, actorKey{}, actor{
		kind: strings.TrimSpace(actorType),
		id:   strings.TrimSpace(actorID),
	})
}

func ActorFromContext(ctx stdctx.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	value, ok := ctx.Value(actorKey{}).(actor)
	if !ok {
		return "", ""
	}
	return value.kind, value.id
}
