package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// FetchFunc retrieves the issuer's current signing keys, indexed by kid.
// Tests inject a fake to avoid network access.
type FetchFunc func(ctx context.Context) (map[string]*rsa.PublicKey, error)

// KeyCache caches an issuer's signing keys with a TTL refresh policy.
// The first lookup fetches lazily; later lookups refetch only after the
// TTL elapses or when an unknown kid is requested against a stale set.
type KeyCache struct {
	fetch FetchFunc
	ttl   time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

// NewKeyCache creates a KeyCache around fetch. A non-positive ttl
// defaults to one hour.
func NewKeyCache(fetch FetchFunc, ttl time.Duration) *KeyCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &KeyCache{fetch: fetch, ttl: ttl}
}

// Key returns the signing key for kid, refreshing the cached set when it
// is empty or expired.
func (c *KeyCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keys == nil || time.Now().After(c.expiresAt) {
		if err := c.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	key, ok := c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("signing key %q not found in key set", kid)
	}
	return key, nil
}

func (c *KeyCache) refreshLocked(ctx context.Context) error {
	keys, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refreshing key set: %w", err)
	}
	c.keys = keys
	c.expiresAt = time.Now().Add(c.ttl)
	return nil
}

// jwk is one entry of a published JWKS document.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSFetcher returns a FetchFunc that downloads the JWKS document at
// url and decodes its RSA keys. A nil client uses http.DefaultClient.
func JWKSFetcher(url string, client *http.Client) FetchFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (map[string]*rsa.PublicKey, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating JWKS request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching JWKS: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("JWKS request failed: %d", resp.StatusCode)
		}

		var doc struct {
			Keys []jwk `json:"keys"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing JWKS: %w", err)
		}

		keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
		for _, k := range doc.Keys {
			if k.Kty != "RSA" || k.Kid == "" {
				continue
			}
			pub, err := k.publicKey()
			if err != nil {
				return nil, fmt.Errorf("decoding JWKS key %q: %w", k.Kid, err)
			}
			keys[k.Kid] = pub
		}
		return keys, nil
	}
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("zero exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
