package utils

import "context"

type requestIDKey struct{}

// WithRequestID attaches a request id that log lines written under ctx pick up.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	requestID, ok := ctx.Value(requestIDKey{}).(string)

	return requestID, ok && requestID != ""
}
