// Package mirror republishes downloaded files to object storage.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/symfetch/internal/utils"
)

// Uploader is the part of manager.Uploader the mirror uses.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Mirror struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// NewS3Mirror loads the shared AWS configuration for cfg.Profile and returns
// a mirror that uploads into cfg.Bucket under cfg.Prefix.
func NewS3Mirror(ctx context.Context, cfg utils.MirrorConfig) (*S3Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRetryMode("adaptive")}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return New(manager.NewUploader(s3.NewFromConfig(awsCfg)), cfg.Bucket, cfg.Prefix), nil
}

func New(uploader Uploader, bucket, prefix string) *S3Mirror {
	return &S3Mirror{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

// Key maps a list fragment to its object key.
func (m *S3Mirror) Key(fragment string) string {
	return path.Join(m.prefix, strings.TrimLeft(fragment, "/"))
}

// Publish uploads the file at localPath as the object for fragment.
func (m *S3Mirror) Publish(ctx context.Context, localPath, fragment string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("error opening %s for upload: %w", localPath, err)
	}
	defer f.Close()
	key := m.Key(fragment)
	if _, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("error uploading s3://%s/%s: %w", m.bucket, key, err)
	}
	log.Debug().Str("op", "mirror/s3").Msgf("Uploaded %s to s3://%s/%s", localPath, m.bucket, key)
	return nil
}
