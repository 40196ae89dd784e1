package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthRejected is returned when a token is missing, malformed,
// expired, or fails signature or claim validation.
var ErrAuthRejected = errors.New("authentication rejected")

// VerifierConfig configures token verification.
type VerifierConfig struct {
	// Issuer is the identity provider's issuer URL. The JWKS document is
	// expected at {Issuer}/.well-known/jwks.json unless JWKSURL is set.
	Issuer string

	// JWKSURL overrides the derived JWKS location.
	JWKSURL string

	// Audience is the expected audience claim. Empty skips the check.
	Audience string

	// KeyTTL bounds how long fetched signing keys are cached.
	KeyTTL time.Duration
}

// Verifier validates bearer tokens against the issuer's published key
// set and yields the verified subject as the caller identity.
type Verifier struct {
	cfg  VerifierConfig
	keys *KeyCache
}

// NewVerifier creates a Verifier that fetches keys over HTTP with a
// TTL-cached key set.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	url := cfg.JWKSURL
	if url == "" {
		url = strings.TrimSuffix(cfg.Issuer, "/") + "/.well-known/jwks.json"
	}
	return NewVerifierWithKeys(cfg, NewKeyCache(JWKSFetcher(url, nil), cfg.KeyTTL)), nil
}

// NewVerifierWithKeys creates a Verifier over an explicit key cache, so
// tests can inject a fake key set.
func NewVerifierWithKeys(cfg VerifierConfig, keys *KeyCache) *Verifier {
	return &Verifier{cfg: cfg, keys: keys}
}

// Verify validates token and returns the caller identity. All failures
// wrap ErrAuthRejected.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.keys.Key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRejected, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrAuthRejected)
	}

	return &Identity{UserID: sub, Claims: claims}, nil
}

// Middleware extracts the Bearer token from the Authorization header,
// verifies it, and stores the caller identity in the request context.
// Requests without a valid token are rejected with 401.
func (v *Verifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing or invalid Authorization header")
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				unauthorized(w, "token invalid")
				return
			}

			ctx := WithIdentity(WithToken(r.Context(), token), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
