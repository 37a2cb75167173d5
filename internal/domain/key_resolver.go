package domain

import (
	"context"
	"crypto/rsa"
)

// KeyResolver resolves token signing keys by their key identifier (kid).
// Implementations may reach the identity provider's key-set endpoint over
// the network, so resolution takes a context.
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}
