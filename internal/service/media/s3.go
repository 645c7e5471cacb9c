package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/avolkov/viewtube/internal/apperrors"
)

type S3Config struct {
	// Base endpoint, e.g. http://localhost:9000 for MinIO
	// If empty the default AWS endpoint resolution is used
	Endpoint string

	Region string
	Bucket string

	// Static credentials (MINIO_ROOT_USER / MINIO_ROOT_PASSWORD style)
	AccessKey string
	SecretKey string
}

// S3Uploader stores media objects in a single S3 bucket
type S3Uploader struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket must not be empty")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("error while loading aws config. Err: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
	}, nil
}

// Upload puts the file under a date-partitioned random key and returns
// the durable object URL. Kind prefixes the key (avatars, covers, ...)
func (u *S3Uploader) Upload(ctx context.Context, kind string, file File) (string, error) {
	key := randomStorageKey(kind)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          file.Content,
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(file.Size),
	})
	if err != nil {
		return "", fmt.Errorf("error while putting object %q: %v. Err: %w", key, err, apperrors.ErrUploadFailed)
	}

	return u.objectURL(key), nil
}

// Delete removes an object by the URL Upload returned
func (u *S3Uploader) Delete(ctx context.Context, url string) error {
	prefix := u.objectURL("")
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("object url %q is not from bucket %q", url, u.bucket)
	}

	key := strings.TrimPrefix(url, prefix)
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error while deleting object %q. Err: %w", key, err)
	}

	return nil
}

func (u *S3Uploader) objectURL(key string) string {
	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key)
}

func randomStorageKey(kind string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", kind, d.Year(), d.Month(), d.Day(), uuid.New())
}
