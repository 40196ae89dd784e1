// Package s3 provides an S3 implementation of the blobstore.Store contract.
// It works against AWS S3 and S3-compatible endpoints (MinIO, gofakes3).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/tabserve/tabserve/pkg/blobstore"
)

// Config holds S3 store configuration.
type Config struct {
	Region      string
	Bucket      string
	Endpoint    string // optional, for S3-compatible stores
	AccessKeyID string
	SecretKey   string

	// UsePathStyle forces path-style addressing; required by most
	// S3-compatible endpoints.
	UsePathStyle bool
}

// Client is the subset of the S3 API the store uses, extracted so tests
// can substitute a mock.
type Client interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, opts ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, opts ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, opts ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, opts ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Store implements blobstore.Store on top of the AWS S3 SDK.
type Store struct {
	cfg     Config
	client  Client
	presign *awss3.PresignClient
}

// New creates a Store from an existing client. Presigning is unavailable
// unless the client is a *s3.Client (see NewFromConfig).
func New(cfg Config, client Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	s := &Store{cfg: cfg, client: client}
	if real, ok := client.(*awss3.Client); ok {
		s.presign = awss3.NewPresignClient(real)
	}
	return s, nil
}

// NewFromConfig builds the SDK client from config and wraps it in a Store.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3-compatible endpoints often reject the SDK's default
			// checksum trailers.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return New(cfg, client)
}

// Put writes data under key with the given content type.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting %q: %w", key, err)
	}
	return nil
}

// Get fetches the full object at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("getting %q: %w", key, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("getting %q: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return data, nil
}

// List returns all objects under prefix, paging through the bucket.
func (s *Store) List(ctx context.Context, prefix string) ([]blobstore.ObjectInfo, error) {
	var infos []blobstore.ObjectInfo
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			info := blobstore.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// Delete removes the object at key. S3's DeleteObject is idempotent, so a
// HeadObject check runs first to give absent keys ErrNotFound semantics.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("deleting %q: %w", key, blobstore.ErrNotFound)
		}
		return fmt.Errorf("checking %q: %w", key, err)
	}

	_, err = s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Presign returns a time-limited GET URL for key.
func (s *Store) Presign(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.presign == nil {
		return "", fmt.Errorf("presigning %q: presign client unavailable", key)
	}
	req, err := s.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presigning %q: %w", key, err)
	}
	return req.URL, nil
}

// isNotFound reports whether err is any S3 shape of "key does not exist".
// HeadObject returns a generic 404 ("NotFound") rather than NoSuchKey.
func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "404"
	}
	return false
}

// Verify interface compliance.
var _ blobstore.Store = (*Store)(nil)
