package keyset

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ipede/imaging-service/internal/domain"
	"github.com/ipede/imaging-service/internal/infrastructure/config"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
)

// Resolver fetches RSA public keys from the identity provider's JWKS
// endpoint and caches them by key identifier. Concurrent lookups for the
// same uncached kid may each trigger a fetch; the cache itself is safe
// under concurrent access.
type Resolver struct {
	endpoint string
	client   *http.Client
	cache    *keyCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewResolver creates a new Resolver backed by the configured JWKS endpoint
func NewResolver(cfg *config.Config, logger *zap.Logger) *Resolver {
	return &Resolver{
		endpoint: cfg.JWKSURL,
		client:   &http.Client{Timeout: cfg.JWKSFetchTimeout},
		cache:    newKeyCache(cfg.JWKSCacheMaxEntries, cfg.JWKSCacheMaxAge),
		logger:   logger,
		now:      time.Now,
	}
}

// ResolveKey returns the public key for kid, serving a non-stale cached
// entry without network I/O and fetching the key set otherwise
func (r *Resolver) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := r.cache.get(kid, r.now()); ok {
		return key, nil
	}

	set, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	jwkKey, ok := set.LookupKeyID(kid)
	if !ok {
		r.logger.Warn("kid not present in key set", zap.String("kid", kid))
		return nil, fmt.Errorf("%w: no key with kid %q", domain.ErrKeyResolution, kid)
	}

	var publicKey rsa.PublicKey
	if err := jwkKey.Raw(&publicKey); err != nil {
		r.logger.Error("failed to materialize public key", zap.String("kid", kid), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyResolution, err)
	}

	r.cache.put(kid, &publicKey, r.now())
	return &publicKey, nil
}

func (r *Resolver) fetch(ctx context.Context) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyResolution, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("failed to fetch key set", zap.String("endpoint", r.endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyResolution, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("key set endpoint returned unexpected status",
			zap.String("endpoint", r.endpoint),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: key set endpoint returned %d", domain.ErrKeyResolution, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyResolution, err)
	}

	set, err := jwk.Parse(body)
	if err != nil {
		r.logger.Error("failed to parse key set", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyResolution, err)
	}

	return set, nil
}
