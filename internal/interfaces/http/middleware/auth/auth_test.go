package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/imaging-service/internal/domain"
	"github.com/ipede/imaging-service/internal/infrastructure/config"
	"github.com/ipede/imaging-service/internal/infrastructure/keyset"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testIssuer = "http://localhost:8180/realms/hospital"

type MockKeyResolver struct {
	mock.Mock
}

func (m *MockKeyResolver) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	args := m.Called(kid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rsa.PublicKey), args.Error(1)
}

type tokenOptions struct {
	kid    string
	issuer string
	roles  []string
	iat    time.Time
	exp    time.Time
}

func signToken(t *testing.T, privateKey *rsa.PrivateKey, opts tokenOptions) string {
	t.Helper()

	claims := Claims{
		PreferredUsername: "drsmith",
		Email:             "smith@hospital.example",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    opts.issuer,
			IssuedAt:  jwt.NewNumericDate(opts.iat),
			ExpiresAt: jwt.NewNumericDate(opts.exp),
		},
	}
	claims.RealmAccess.Roles = opts.roles

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = opts.kid

	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"success"}`))
	})
}

func TestAuthMiddleware_Authenticator(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	validOpts := tokenOptions{
		kid:    "kid-1",
		issuer: testIssuer,
		roles:  []string{"Doctor"},
		iat:    time.Now().Add(-time.Minute),
		exp:    time.Now().Add(15 * time.Minute),
	}

	tests := []struct {
		name           string
		header         string
		mockSetup      func(*MockKeyResolver)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "missing header",
			header:         "",
			mockSetup:      func(m *MockKeyResolver) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "MISSING_TOKEN",
		},
		{
			name:           "malformed header",
			header:         "Token abc",
			mockSetup:      func(m *MockKeyResolver) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "MISSING_TOKEN",
		},
		{
			name:           "scheme without token",
			header:         "Bearer",
			mockSetup:      func(m *MockKeyResolver) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "MISSING_TOKEN",
		},
		{
			name:   "key resolution failure",
			header: "Bearer " + signToken(t, privateKey, validOpts),
			mockSetup: func(m *MockKeyResolver) {
				m.On("ResolveKey", "kid-1").Return(nil, domain.ErrKeyResolution)
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name:   "signature mismatch",
			header: "Bearer " + signToken(t, otherKey, validOpts),
			mockSetup: func(m *MockKeyResolver) {
				m.On("ResolveKey", "kid-1").Return(&privateKey.PublicKey, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, privateKey, tokenOptions{
				kid:    "kid-1",
				issuer: testIssuer,
				roles:  []string{"doctor"},
				iat:    time.Now().Add(-2 * time.Hour),
				exp:    time.Now().Add(-time.Hour),
			}),
			mockSetup: func(m *MockKeyResolver) {
				m.On("ResolveKey", "kid-1").Return(&privateKey.PublicKey, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name: "wrong issuer",
			header: "Bearer " + signToken(t, privateKey, tokenOptions{
				kid:    "kid-1",
				issuer: "http://evil.example/realms/hospital",
				roles:  []string{"doctor"},
				iat:    time.Now().Add(-time.Minute),
				exp:    time.Now().Add(15 * time.Minute),
			}),
			mockSetup: func(m *MockKeyResolver) {
				m.On("ResolveKey", "kid-1").Return(&privateKey.PublicKey, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name:   "wrong signing algorithm",
			header: "Bearer " + signHMACToken(t, validOpts),
			mockSetup: func(m *MockKeyResolver) {
				m.On("ResolveKey", "kid-1").Return(&privateKey.PublicKey, nil).Maybe()
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name:   "valid token",
			header: "Bearer " + signToken(t, privateKey, validOpts),
			mockSetup: func(m *MockKeyResolver) {
				m.On("ResolveKey", "kid-1").Return(&privateKey.PublicKey, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockKeyResolver)
			tt.mockSetup(resolver)

			middleware := NewAuthMiddleware(resolver, testIssuer, zap.NewNop())

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			middleware.Authenticator(okHandler()).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedCode, body["code"])
			}
		})
	}
}

func signHMACToken(t *testing.T, opts tokenOptions) string {
	t.Helper()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    opts.issuer,
			IssuedAt:  jwt.NewNumericDate(opts.iat),
			ExpiresAt: jwt.NewNumericDate(opts.exp),
		},
	}
	claims.RealmAccess.Roles = opts.roles

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = opts.kid

	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware_Authenticator_AttachesIdentity(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	resolver := new(MockKeyResolver)
	resolver.On("ResolveKey", "kid-1").Return(&privateKey.PublicKey, nil)

	middleware := NewAuthMiddleware(resolver, testIssuer, zap.NewNop())

	var identity *domain.Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ = domain.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	token := signToken(t, privateKey, tokenOptions{
		kid:    "kid-1",
		issuer: testIssuer,
		roles:  []string{"Doctor", "STAFF"},
		iat:    time.Now().Add(-time.Minute),
		exp:    time.Now().Add(15 * time.Minute),
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	middleware.Authenticator(handler).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, identity)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, "drsmith", identity.Username)
	assert.Equal(t, "smith@hospital.example", identity.Email)
	assert.Equal(t, []string{"doctor", "staff"}, identity.Roles)
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	tests := []struct {
		name           string
		requiredRoles  []string
		identity       *domain.Identity
		expectedStatus int
	}{
		{
			name:           "no identity in context",
			requiredRoles:  []string{"doctor"},
			identity:       nil,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "role not held",
			requiredRoles:  []string{"doctor"},
			identity:       &domain.Identity{ID: "user-1", Roles: []string{"staff"}},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "role held",
			requiredRoles:  []string{"doctor"},
			identity:       &domain.Identity{ID: "user-1", Roles: []string{"doctor", "staff"}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "role comparison is case-insensitive",
			requiredRoles:  []string{"Doctor"},
			identity:       &domain.Identity{ID: "user-1", Roles: []string{"doctor"}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "any of several required roles suffices",
			requiredRoles:  []string{"doctor", "radiologist"},
			identity:       &domain.Identity{ID: "user-1", Roles: []string{"radiologist"}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty role set denied",
			requiredRoles:  []string{"doctor"},
			identity:       &domain.Identity{ID: "user-1"},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := NewAuthMiddleware(new(MockKeyResolver), testIssuer, zap.NewNop())

			req := httptest.NewRequest("GET", "/", nil)
			if tt.identity != nil {
				req = req.WithContext(domain.WithIdentity(req.Context(), tt.identity))
			}

			w := httptest.NewRecorder()
			middleware.RequireRole(tt.requiredRoles...)(okHandler()).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddleware_RequireRole_DisclosesRoles(t *testing.T) {
	middleware := NewAuthMiddleware(new(MockKeyResolver), testIssuer, zap.NewNop())

	identity := &domain.Identity{ID: "user-1", Roles: []string{"staff"}}
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(domain.WithIdentity(req.Context(), identity))

	w := httptest.NewRecorder()
	middleware.RequireRole("doctor")(okHandler()).ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{
		"code": "INSUFFICIENT_ROLE",
		"error": "insufficient role",
		"required_roles": ["doctor"],
		"user_roles": ["staff"]
	}`, w.Body.String())
}

func TestAuthMiddleware_RequireAuthenticated(t *testing.T) {
	middleware := NewAuthMiddleware(new(MockKeyResolver), testIssuer, zap.NewNop())

	t.Run("no identity", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		middleware.RequireAuthenticated(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("identity attached", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(domain.WithIdentity(req.Context(), &domain.Identity{ID: "user-1", Roles: []string{"staff"}}))
		w := httptest.NewRecorder()

		middleware.RequireAuthenticated(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// TestAuthMiddleware_EndToEnd exercises the full pipeline against a mocked
// key-set endpoint: fetch key by kid, verify the token, attach the identity,
// pass the role gate.
func TestAuthMiddleware_EndToEnd(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	set := jwk.NewSet()
	pub, err := jwk.FromRaw(privateKey.Public())
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, "kid-1"))
	require.NoError(t, set.AddKey(pub))

	body, err := json.Marshal(set)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer server.Close()

	cfg := config.NewConfig()
	cfg.JWKSURL = server.URL
	resolver := keyset.NewResolver(cfg, zap.NewNop())

	middleware := NewAuthMiddleware(resolver, testIssuer, zap.NewNop())
	chain := middleware.Authenticator(middleware.RequireRole("doctor")(okHandler()))

	token := signToken(t, privateKey, tokenOptions{
		kid:    "kid-1",
		issuer: testIssuer,
		roles:  []string{"doctor"},
		iat:    time.Now().Add(-time.Minute),
		exp:    time.Now().Add(15 * time.Minute),
	})

	req := httptest.NewRequest("POST", "/api/images", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"success"}`, w.Body.String())

	// a staff-only token is rejected by the same chain
	staffToken := signToken(t, privateKey, tokenOptions{
		kid:    "kid-1",
		issuer: testIssuer,
		roles:  []string{"staff"},
		iat:    time.Now().Add(-time.Minute),
		exp:    time.Now().Add(15 * time.Minute),
	})

	req = httptest.NewRequest("POST", "/api/images", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	w = httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
