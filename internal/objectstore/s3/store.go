// Package s3 provides an S3-backed object store for file content.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"folio/internal/domain"
	"folio/internal/domain/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds configuration for the S3 object store.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string

	// AccessKey and SecretKey select static credentials; empty uses the default chain.
	AccessKey string
	SecretKey string

	// KeyPrefix is prepended to all object keys (e.g., "folio/").
	KeyPrefix string

	// ForcePathStyle forces path-style addressing (required for MinIO).
	ForcePathStyle bool
}

// Store is an S3-backed implementation of services.ObjectStore.
// Blob references are object keys without the configured prefix.
type Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
	retryable retry.IsErrorRetryables
}

// New creates a new S3 object store with an existing client.
func New(client *s3.Client, config Config) *Store {
	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		retryable: retry.IsErrorRetryables(retry.DefaultRetryables),
	}
}

// NewFromConfig creates a new S3 object store by creating an S3 client from config.
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}
	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return New(s3.NewFromConfig(awsCfg, s3Opts...), config), nil
}

func (s *Store) fullKey(ref string) string {
	return s.keyPrefix + ref
}

// Put uploads size bytes from body under key
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.fullKey(key)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", s.wrap("put", key, err)
	}
	return key, nil
}

// Delete removes an object. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(ref)),
	})
	if err != nil {
		return s.wrap("delete", ref, err)
	}
	return nil
}

// SignedURL presigns a GET for ref
func (s *Store) SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(ref)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", s.wrap("presign", ref, err)
	}
	return req.URL, nil
}

// Copy duplicates srcRef into dstRef server-side
func (s *Store) Copy(ctx context.Context, srcRef, dstRef string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.fullKey(dstRef)),
		CopySource: aws.String(copySource(s.bucket, s.fullKey(srcRef))),
	})
	if err != nil {
		return s.wrap("copy", srcRef, err)
	}
	return nil
}

// Ping checks the bucket is reachable with the configured credentials
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return s.wrap("head", s.bucket, err)
	}
	return nil
}

// copySource builds the URL-encoded "bucket/key" CopyObject expects
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// wrap classifies err with the SDK's retryable rules (throttling, 5xx, timeouts)
func (s *Store) wrap(op, ref string, err error) error {
	retryable := false
	if !errors.Is(err, context.Canceled) {
		retryable = s.retryable.IsErrorRetryable(err) == aws.TrueTernary
	}
	return &domain.StorageBackendError{Op: op, Ref: ref, Retryable: retryable, Err: err}
}

// Ensure Store implements services.ObjectStore.
var _ services.ObjectStore = (*Store)(nil)
