package qr

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/xelth-com/eckassets/internal/config"
)

const objectPrefix = "qr/"

// MinioRenderer stores QR images as objects in a bucket
type MinioRenderer struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioRenderer connects to MinIO and makes sure the bucket exists
func NewMinioRenderer(ctx context.Context, cfg config.MinIOConfig, baseURL string) (*MinioRenderer, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioRenderer{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

func (r *MinioRenderer) Render(ctx context.Context, assetID uint) (Rendered, error) {
	content := Content(r.baseURL, assetID)
	png, err := EncodePNG(content)
	if err != nil {
		return Rendered{}, fmt.Errorf("encode qr: %w", err)
	}

	name := objectPrefix + objectName(assetID)
	_, err = r.client.PutObject(ctx, r.bucket, name, bytes.NewReader(png), int64(len(png)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return Rendered{}, fmt.Errorf("upload qr image: %w", err)
	}
	return Rendered{Content: content, ImageRef: name}, nil
}

func (r *MinioRenderer) Release(ctx context.Context, imageRef string) error {
	if imageRef == "" {
		return nil
	}
	if err := r.client.RemoveObject(ctx, r.bucket, imageRef, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove qr object: %w", err)
	}
	return nil
}
