package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/imaging-service/internal/domain"
	"github.com/ipede/imaging-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// defaultLeeway absorbs clock drift between the identity provider and this service
const defaultLeeway = 30 * time.Second

// Claims is the verified token payload issued by the identity provider
type Claims struct {
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	resolver domain.KeyResolver
	issuer   string
	logger   *zap.Logger
}

func NewAuthMiddleware(resolver domain.KeyResolver, issuer string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, issuer: issuer, logger: logger}
}

// Authenticator verifies the bearer token and attaches the resulting
// identity to the request context. Requests without a token are rejected
// with 401, requests with an unverifiable token with 403.
func (m *AuthMiddleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := m.extractToken(r)
		if !ok {
			errors.RespondWithError(w, errors.ErrCodeMissingToken, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims, err := m.validateToken(r, tokenString)
		if err != nil {
			// verification details are logged, never returned to the caller
			m.logger.Warn("token rejected", zap.Error(err))
			errors.RespondWithError(w, errors.ErrCodeInvalidToken, "invalid token", http.StatusForbidden)
			return
		}

		identity := identityFromClaims(claims)
		next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), identity)))
	})
}

// RequireRole allows the request through iff the authenticated identity
// holds at least one of the given roles
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := domain.GetIdentity(r.Context())
			if !ok {
				errors.RespondWithError(w, errors.ErrCodeNotAuthenticated, "authentication required", http.StatusUnauthorized)
				return
			}

			if !identity.HasAnyRole(roles...) {
				m.logger.Warn("insufficient role",
					zap.String("user_id", identity.ID),
					zap.Strings("required", roles),
					zap.Strings("actual", identity.Roles))
				errors.RespondWithRoleError(w, roles, identity.Roles)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated requires no specific role but still requires that the
// Authenticator ran and attached an identity. Unreachable in a correctly
// wired route group; kept as a guard against wiring mistakes.
func (m *AuthMiddleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := domain.GetIdentity(r.Context()); !ok {
			errors.RespondWithError(w, errors.ErrCodeNotAuthenticated, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) validateToken(r *http.Request, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, domain.ErrInvalidToken
		}
		return m.resolver.ResolveKey(r.Context(), kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(defaultLeeway),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func identityFromClaims(claims *Claims) *domain.Identity {
	roles := make([]string, 0, len(claims.RealmAccess.Roles))
	for _, role := range claims.RealmAccess.Roles {
		roles = append(roles, strings.ToLower(role))
	}

	return &domain.Identity{
		ID:       claims.Subject,
		Username: claims.PreferredUsername,
		Email:    claims.Email,
		Roles:    roles,
	}
}

func (m *AuthMiddleware) extractToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
