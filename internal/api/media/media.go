// Package media stores user-uploaded files. The S3 implementation works
// against AWS or anything S3-compatible (MinIO in development) via a base
// endpoint override.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Object is a stored file.
type Object struct {
	Key string
	URL string
}

// Store is the object storage interface used for avatars.
type Store interface {
	// Upload writes the object and returns its public location.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (Object, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// KeyForURL maps a public URL produced by Upload back to its object key.
	// Returns false for URLs this store didn't produce (e.g. the default
	// avatar placeholder).
	KeyForURL(url string) (string, bool)
}

// Config holds S3 connection settings.
type Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// BaseEndpoint overrides the AWS endpoint for S3-compatible stores.
	// Empty means real AWS.
	BaseEndpoint string

	// PublicBaseURL is the prefix objects are served from, e.g. a CDN or the
	// bucket website endpoint. Object URLs are PublicBaseURL + "/" + key.
	PublicBaseURL string
}

type S3Store struct {
	cfg    Config
	client *s3.Client
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" || cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("media: bucket and public base URL are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			// Path-style addressing; MinIO doesn't do virtual hosts.
			o.UsePathStyle = true
		}
	})

	return &S3Store{cfg: cfg, client: client}, nil
}

// AvatarKey builds a collision-free object key for an avatar upload.
func AvatarKey(userID string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("avatars/%d/%02d/%s-%s", d.Year(), d.Month(), userID, uuid.NewString())
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) (Object, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("media: put object %s: %w", key, err)
	}

	return Object{
		Key: key,
		URL: strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + key,
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("media: delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) KeyForURL(url string) (string, bool) {
	prefix := strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}
