// Package s3 archives uploaded contracts in an S3 bucket (or any
// S3-compatible store such as MinIO).
package s3

import (
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"contractlens/internal/config"
	"contractlens/internal/port"
)

// runIDMetadataKey is stored as x-amz-meta-run-id on every archived upload.
const runIDMetadataKey = "run-id"

// defaultPresignExpiry applies when the caller passes a non-positive expiry.
const defaultPresignExpiry = time.Hour

type archiveStore struct {
	presigner *s3.PresignClient
	uploader  *manager.Uploader
}

// NewS3Client creates an S3-backed ObjectStorage for run archives. A custom
// endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg *config.S3Config) (port.ObjectStorage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config for run archive: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &archiveStore{
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
	}, nil
}

// Upload stores one run's original file. The run ID goes into object
// metadata and the original filename into Content-Disposition, so a
// presigned download keeps the name the user uploaded.
func (a *archiveStore) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	put := &s3.PutObjectInput{
		Bucket:      aws.String(input.Bucket),
		Key:         aws.String(input.Key),
		Body:        input.Body,
		ContentType: aws.String(input.ContentType),
	}
	if input.RunID != "" {
		put.Metadata = map[string]string{runIDMetadataKey: input.RunID}
	}
	if input.Filename != "" {
		put.ContentDisposition = aws.String(mime.FormatMediaType("attachment", map[string]string{"filename": input.Filename}))
	}

	result, err := a.uploader.Upload(ctx, put)
	if err != nil {
		return nil, fmt.Errorf("archiving run %s to s3://%s/%s: %w", input.RunID, input.Bucket, input.Key, err)
	}

	out := &port.UploadOutput{Location: result.Location}
	if result.ETag != nil {
		out.ETag = *result.ETag
	}
	return out, nil
}

func (a *archiveStore) GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error) {
	expiry := time.Duration(expirySeconds) * time.Second
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	result, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presigning run archive s3://%s/%s: %w", bucket, key, err)
	}
	return result.URL, nil
}
