// Package storage wraps the MinIO object store that keeps the original
// uploaded minutes documents.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mustafamaahir/Meeting-Minutes/internal/config"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
)

// MinioClient is the global MinIO client instance.
var MinioClient *minio.Client

// InitMinIO initializes the MinIO client and makes sure the configured
// bucket exists.
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("failed to initialize minio client", err)
	}

	log.Info("minio client initialized")

	ctx := context.Background()
	bucketName := cfg.BucketName
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("failed to check minio bucket", err)
	}

	if !exists {
		log.Infof("bucket '%s' does not exist, creating...", bucketName)
		if err := MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("failed to create minio bucket", err)
		}
		log.Infof("bucket '%s' created", bucketName)
	} else {
		log.Infof("bucket '%s' already exists", bucketName)
	}
}

// Archive is the document-archive surface consumed by the minutes service.
type Archive interface {
	Save(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, objectName string) error
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

// MinioArchive implements Archive on top of the global MinIO client.
type MinioArchive struct {
	bucket string
	expiry time.Duration
}

// NewArchive creates an Archive bound to the configured bucket. expiry
// bounds the lifetime of presigned download links.
func NewArchive(cfg config.MinIOConfig, expiry time.Duration) *MinioArchive {
	return &MinioArchive{bucket: cfg.BucketName, expiry: expiry}
}

// Save uploads one document under the given object name.
func (a *MinioArchive) Save(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := MinioClient.PutObject(ctx, a.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Errorf("failed to save object '%s': %v", objectName, err)
		return err
	}
	log.Infof("saved object '%s' (%d bytes)", objectName, size)
	return nil
}

// Remove deletes one archived document.
func (a *MinioArchive) Remove(ctx context.Context, objectName string) error {
	if err := MinioClient.RemoveObject(ctx, a.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		log.Errorf("failed to remove object '%s': %v", objectName, err)
		return err
	}
	return nil
}

// PresignedURL generates a temporary download link for an archived document.
func (a *MinioArchive) PresignedURL(ctx context.Context, objectName string) (string, error) {
	presignedURL, err := MinioClient.PresignedGetObject(ctx, a.bucket, objectName, a.expiry, nil)
	if err != nil {
		log.Errorf("failed to generate presigned url for '%s': %v", objectName, err)
		return "", err
	}
	return presignedURL.String(), nil
}
