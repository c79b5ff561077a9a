// Package storage publishes rendered clips to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"quietcut/internal/services"
)

// Uploader stores a local file under key and returns its location.
type Uploader interface {
	Upload(ctx context.Context, key, localPath string) (string, error)
}

// S3Config holds the settings for S3 uploads.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // S3-compatible endpoint such as MinIO
	Prefix          string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3Uploader uploads clips with PutObject.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Uploader builds a client from the default AWS credential chain, or
// from static credentials when both halves are configured.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "init", "bucket is required", nil)
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "load aws config", "", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" || cfg.UsePathStyle {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
			if cfg.UsePathStyle {
				o.UsePathStyle = true
			}
		})
	}

	return &S3Uploader{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Upload sends localPath to the bucket under the configured prefix.
func (u *S3Uploader) Upload(ctx context.Context, key, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	fullKey := key
	if u.prefix != "" {
		fullKey = path.Join(u.prefix, key)
	}
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(fullKey),
		Body:        f,
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "upload", "put object", fullKey, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, fullKey), nil
}

// ClipKey groups clips by the source they were cut from.
func ClipKey(sourceName, clipPath string) string {
	return path.Join(sourceName, filepath.Base(clipPath))
}
