// Package requestctx carries where a request came from through the call
// chain, so handlers, history entries and log lines name it the same way.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

// Origin identifies one inbound request.
type Origin struct {
	RequestID string
	ClientIP  string
}

type originKey struct{}

// With stores origin on ctx, replacing any earlier one.
func With(ctx context.Context, origin Origin) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// From returns the origin stored on ctx, or the zero Origin.
func From(ctx context.Context) Origin {
	origin, _ := ctx.Value(originKey{}).(Origin)
	return origin
}

func RequestID(ctx context.Context) string {
	return From(ctx).RequestID
}

// Fields renders the origin as log fields; empty parts are left out.
func Fields(ctx context.Context) []zap.Field {
	origin := From(ctx)
	fields := make([]zap.Field, 0, 2)
	if origin.RequestID != "" {
		fields = append(fields, zap.String("requestId", origin.RequestID))
	}
	if origin.ClientIP != "" {
		fields = append(fields, zap.String("clientIp", origin.ClientIP))
	}
	return fields
}
