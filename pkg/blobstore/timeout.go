package blobstore

import (
	"context"
	"time"
)

// WithTimeout wraps store so every call runs under a deadline. The
// pipeline's pure transforms never block; the blob-store boundary is the
// only place a request can hang, so the timeout is applied here.
func WithTimeout(store Store, d time.Duration) Store {
	if d <= 0 {
		return store
	}
	return &timeoutStore{inner: store, timeout: d}
}

type timeoutStore struct {
	inner   Store
	timeout time.Duration
}

func (t *timeoutStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Put(ctx, key, data, contentType)
}

func (t *timeoutStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Get(ctx, key)
}

func (t *timeoutStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.List(ctx, prefix)
}

func (t *timeoutStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Delete(ctx, key)
}

func (t *timeoutStore) Presign(ctx context.Context, key string, expires time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Presign(ctx, key, expires)
}

var _ Store = (*timeoutStore)(nil)
