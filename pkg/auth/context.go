// Package auth verifies bearer tokens against an external identity
// issuer's published key set and carries the verified caller identity
// through the request context.
package auth

import "context"

// contextKey is a private type for context keys.
type contextKey int

const (
	identityContextKey contextKey = iota
	tokenContextKey
)

// Identity holds the verified caller identity.
type Identity struct {
	// UserID is the verified subject claim, used as the ownership
	// namespace for every dataset key.
	UserID string

	// Claims holds the full verified claim set.
	Claims map[string]any
}

// WithIdentity adds a verified identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// GetIdentity retrieves the verified identity from the context, or nil.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityContextKey).(*Identity); ok {
		return id
	}
	return nil
}

// WithToken adds a raw bearer token to the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// GetToken retrieves the raw bearer token from the context.
func GetToken(ctx context.Context) string {
	if token, ok := ctx.Value(tokenContextKey).(string); ok {
		return token
	}
	return ""
}
