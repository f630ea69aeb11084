package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures an S3Store.
type S3Options struct {
	Bucket  string
	Prefix  string
	Region  string
	Profile string // Empty uses the default credential chain (IAM role)
	// PublicURL overrides the virtual-hosted bucket URL, e.g. a CDN origin.
	PublicURL string
}

// S3Store keeps objects in an S3 bucket.
type S3Store struct {
	client S3API
	opts   S3Options
}

// NewS3Store loads AWS credentials and creates an S3-backed store.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg), opts), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, opts S3Options) *S3Store {
	opts.Prefix = strings.Trim(opts.Prefix, "/")
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &S3Store{client: client, opts: opts}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("putting object to S3: %w", err)
	}
	return s.URL(key), nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting object from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, nil
}

func (s *S3Store) URL(key string) string {
	k := s.objectKey(key)
	if s.opts.PublicURL != "" {
		return s.opts.PublicURL + "/" + k
	}
	if s.opts.Region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.opts.Bucket, k)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, k)
}

func (s *S3Store) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.opts.Prefix == "" {
		return key
	}
	return s.opts.Prefix + "/" + key
}
