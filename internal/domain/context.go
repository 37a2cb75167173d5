package domain

import "context"

// ContextKey is a type for context keys to avoid magic strings
type ContextKey string

const (
	// ContextKeyIdentity is the key for the authenticated identity in the context
	ContextKeyIdentity ContextKey = "identity"
	// ContextKeyRequestID is the key for the request ID in the context
	ContextKeyRequestID ContextKey = "request_id"
)

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, identity)
}

// GetIdentity retrieves the authenticated identity from the context
func GetIdentity(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(*Identity)
	return identity, ok
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}
