package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/akozlov/clothes-shop/internal/models"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3Host stores images in an S3-compatible bucket (MinIO in dev).
type S3Host struct {
	client *s3.Client
	bucket string
	public string
}

func NewS3Host(ctx context.Context, cfg S3Config) (*S3Host, error) {
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
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Host{
		client: client,
		bucket: cfg.Bucket,
		public: strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket,
	}, nil
}

func (h *S3Host) Upload(ctx context.Context, data []byte, filename, contentType string) (models.Image, error) {
	key := ObjectKey(filename)
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &h.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return models.Image{}, fmt.Errorf("media: upload %s: %w", key, err)
	}
	return models.Image{
		PublicID: key,
		URL:      h.public + "/" + key,
	}, nil
}

func (h *S3Host) Delete(ctx context.Context, publicID string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &h.bucket,
		Key:    &publicID,
	})
	if err != nil {
		return fmt.Errorf("media: delete %s: %w", publicID, err)
	}
	return nil
}
