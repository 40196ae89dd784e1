// Package dataset implements the dataset storage and summarization
// pipeline: the key-naming scheme, the dual raw/materialized storage
// contract, the ownership guard, and the operations composing them over
// a blob store.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tabserve/tabserve/pkg/blobstore"
	"github.com/tabserve/tabserve/pkg/table"
)

// Service composes the key scheme, ownership guard, materializer, and
// blob store into the dataset operations. It holds no cross-request
// state; every summarize or preview call re-fetches and re-computes.
type Service struct {
	store      blobstore.Store
	log        *slog.Logger
	presignTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithPresignTTL sets the lifetime of download URLs returned by List.
func WithPresignTTL(ttl time.Duration) Option {
	return func(s *Service) { s.presignTTL = ttl }
}

// NewService creates a dataset service over the given store.
func NewService(store blobstore.Store, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:      store,
		log:        log,
		presignTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadResult describes a finalized upload.
type UploadResult struct {
	DatasetID        string   `json:"dataset_id"`
	OriginalFilename string   `json:"original_filename"`
	Columns          []string `json:"columns"`
	NumRows          int      `json:"num_rows"`
	RawKey           string   `json:"-"`
	MaterializedKey  string   `json:"-"`
}

// Info describes one stored dataset, derived from a storage listing.
type Info struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Format      string `json:"format"`
	UploadedAt  string `json:"uploadedAt"`
	DownloadURL string `json:"downloadUrl"`
}

// Upload persists a raw CSV upload and its materialized form under a
// fresh key pair in the caller's namespace. The filename must end in
// .csv. The raw bytes are stored first, then parsed and re-serialized;
// a parse failure therefore leaves the raw blob behind, matching the
// write-once, best-effort consistency model.
func (s *Service) Upload(ctx context.Context, userID, filename string, raw []byte) (*UploadResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, fmt.Errorf("%w: only CSV files are supported", ErrBadInput)
	}

	rawKey := MakeKey(userID, filename)
	if err := s.store.Put(ctx, rawKey, raw, "text/csv"); err != nil {
		return nil, fmt.Errorf("storing raw upload: %w", err)
	}

	t, err := table.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("materializing dataset: %w", err)
	}

	materialized, err := table.Encode(t)
	if err != nil {
		return nil, fmt.Errorf("materializing dataset: %w", err)
	}

	pklKey := MaterializedKeyFor(rawKey)
	if err := s.store.Put(ctx, pklKey, materialized, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("storing materialized form: %w", err)
	}

	s.log.Info("dataset uploaded",
		"user", userID,
		"raw_key", rawKey,
		"materialized_key", pklKey,
		"rows", t.NumRows(),
	)

	return &UploadResult{
		DatasetID:        pklKey,
		OriginalFilename: filename,
		Columns:          t.Columns,
		NumRows:          t.NumRows(),
		RawKey:           rawKey,
		MaterializedKey:  pklKey,
	}, nil
}

// List returns the caller's datasets, one entry per materialized blob,
// with a presigned download URL each. The storage listing is scoped to
// the caller's namespace prefix, so no per-key authorization is needed.
func (s *Service) List(ctx context.Context, userID string) ([]Info, error) {
	objects, err := s.store.List(ctx, keyPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}

	infos := make([]Info, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, MaterializedExt) {
			continue
		}
		url, err := s.store.Presign(ctx, obj.Key, s.presignTTL)
		if err != nil {
			return nil, fmt.Errorf("presigning %q: %w", obj.Key, err)
		}
		name := obj.Key
		if i := strings.LastIndex(obj.Key, "/"); i >= 0 {
			name = obj.Key[i+1:]
		}
		infos = append(infos, Info{
			ID:          obj.Key,
			Key:         obj.Key,
			Name:        name,
			Format:      strings.TrimPrefix(MaterializedExt, "."),
			UploadedAt:  obj.LastModified.UTC().Format(time.RFC3339),
			DownloadURL: url,
		})
	}
	return infos, nil
}

// Delete removes a dataset. Success is defined solely by removal of the
// materialized blob; the raw companion is cleaned up best-effort, with
// failures logged and swallowed. A storage fault between the two steps
// leaves an orphaned raw blob, which is accepted.
func (s *Service) Delete(ctx context.Context, callerID, materializedKey string) error {
	if err := Authorize(callerID, materializedKey); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, materializedKey); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, materializedKey)
		}
		return fmt.Errorf("deleting dataset: %w", err)
	}

	if strings.HasSuffix(materializedKey, MaterializedExt) {
		rawKey := RawKeyFor(materializedKey)
		if err := s.store.Delete(ctx, rawKey); err != nil {
			s.log.Warn("companion raw blob cleanup failed",
				"key", rawKey,
				"error", err,
			)
		}
	}

	return nil
}

// Summarize loads the materialized table for a dataset and computes its
// summary. The dataset ID may omit the materialized extension.
func (s *Service) Summarize(ctx context.Context, callerID, datasetID string) (*table.Summary, error) {
	t, err := s.load(ctx, callerID, datasetID)
	if err != nil {
		return nil, err
	}
	return table.Summarize(t), nil
}

// TopRows returns the first n rows of a dataset as JSON-safe records.
// targetColumn is reserved for future use and currently ignored.
func (s *Service) TopRows(ctx context.Context, callerID, datasetID string, n int, targetColumn string) ([]map[string]any, error) {
	_ = targetColumn
	t, err := s.load(ctx, callerID, datasetID)
	if err != nil {
		return nil, err
	}
	return table.Head(t, n), nil
}

// load authorizes, fetches, and decodes the materialized table for a
// dataset ID.
func (s *Service) load(ctx context.Context, callerID, datasetID string) (*table.Table, error) {
	key := CanonicalKey(datasetID)
	if err := Authorize(callerID, key); err != nil {
		return nil, err
	}

	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("fetching dataset: %w", err)
	}

	t, err := table.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %q: %w", key, err)
	}
	return t, nil
}
