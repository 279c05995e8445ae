package mirror

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/phambaophuc/tiny-compress-images/internal/config"
)

type S3 struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

func NewS3(cfg config.S3Config) (*S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &S3{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
	}, nil
}

func (m *S3) Name() string { return "s3" }

func (m *S3) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	out, err := m.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file, %v", err)
	}
	return out.Location, nil
}

func (m *S3) HealthCheck(ctx context.Context) error {
	_, err := m.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(m.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3: %w", err)
	}
	return nil
}
