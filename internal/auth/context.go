package auth

import "context"

type contextKey struct{}

// Caller identifies the device behind a request. DeviceID is whatever the
// client sends in X-Device-ID and is echoed on broadcasts so a device can
// skip its own changes.
type Caller struct {
	DeviceID      string
	Authenticated bool
}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(contextKey{}).(Caller)
	return c, ok
}

func DeviceID(ctx context.Context) string {
	c, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return c.DeviceID
}

func IsAuthenticated(ctx context.Context) bool {
	c, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return c.Authenticated
}
