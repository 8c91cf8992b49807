// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "context"

type requestIDKey struct{}

// WithRequestID attaches a request id used in logs and history.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
