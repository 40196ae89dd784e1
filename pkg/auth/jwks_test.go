package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKeyCache(t *testing.T) {
	key := testKeyPair(t)

	t.Run("lazy first fetch", func(t *testing.T) {
		fetches := 0
		cache := NewKeyCache(func(context.Context) (map[string]*rsa.PublicKey, error) {
			fetches++
			return map[string]*rsa.PublicKey{"k1": &key.PublicKey}, nil
		}, time.Hour)

		if fetches != 0 {
			t.Fatalf("fetched before first use")
		}
		for i := 0; i < 3; i++ {
			if _, err := cache.Key(context.Background(), "k1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if fetches != 1 {
			t.Errorf("fetches = %d, want 1 (cached within TTL)", fetches)
		}
	})

	t.Run("refetch after TTL", func(t *testing.T) {
		fetches := 0
		cache := NewKeyCache(func(context.Context) (map[string]*rsa.PublicKey, error) {
			fetches++
			return map[string]*rsa.PublicKey{"k1": &key.PublicKey}, nil
		}, time.Nanosecond)

		_, _ = cache.Key(context.Background(), "k1")
		time.Sleep(time.Millisecond)
		_, _ = cache.Key(context.Background(), "k1")
		if fetches != 2 {
			t.Errorf("fetches = %d, want 2 (TTL expired)", fetches)
		}
	})

	t.Run("unknown kid", func(t *testing.T) {
		cache := NewKeyCache(func(context.Context) (map[string]*rsa.PublicKey, error) {
			return map[string]*rsa.PublicKey{"k1": &key.PublicKey}, nil
		}, time.Hour)

		if _, err := cache.Key(context.Background(), "nope"); err == nil {
			t.Error("expected error for unknown kid")
		}
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		boom := errors.New("boom")
		cache := NewKeyCache(func(context.Context) (map[string]*rsa.PublicKey, error) {
			return nil, boom
		}, time.Hour)

		if _, err := cache.Key(context.Background(), "k1"); !errors.Is(err, boom) {
			t.Errorf("expected fetch error, got %v", err)
		}
	})
}

func TestJWKSFetcher(t *testing.T) {
	key := testKeyPair(t)

	doc := map[string]any{
		"keys": []map[string]string{
			{
				"kty": "RSA",
				"kid": "k1",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			},
			{"kty": "EC", "kid": "ignored"},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer srv.Close()

	fetch := JWKSFetcher(srv.URL, nil)
	keys, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(keys) != 1 {
		t.Fatalf("len(keys) = %d, want 1 (non-RSA entries skipped)", len(keys))
	}
	got, ok := keys["k1"]
	if !ok {
		t.Fatal("key k1 missing")
	}
	if got.N.Cmp(key.PublicKey.N) != 0 || got.E != key.PublicKey.E {
		t.Error("decoded key does not match original")
	}

	t.Run("non-200 response", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer bad.Close()

		if _, err := JWKSFetcher(bad.URL, nil)(context.Background()); err == nil {
			t.Error("expected error for non-200 response")
		}
	})
}
