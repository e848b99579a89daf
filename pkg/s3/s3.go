package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorageClient uploads run reports to an S3 compatible bucket.
type ObjectStorageClient interface {
	Connect(endpoint, accessKeyID, secretAccessKey string, useSSL bool) error
	Upload(ctx context.Context, bucketName, objectName string, content io.Reader, size int64, contentType string) (UploadInfo, error)
}

// UploadInfo describes a stored object.
type UploadInfo struct {
	ObjectName   string
	Size         int64
	PresignedURL string // Download link valid for PresignExpiry
}

// PresignExpiry is the lifetime of the download link returned by Upload.
const PresignExpiry = 7 * 24 * time.Hour

// ObjectStorage holds the object storage client instance
type ObjectStorage struct {
	Conn *minio.Client
}

// NewObjectStorage initialization
func NewObjectStorage() *ObjectStorage {
	return &ObjectStorage{}
}

// Connect establishes the object storage connection using client
func (o *ObjectStorage) Connect(endpoint string, accessKeyID string, secretAccessKey string, useSSL bool) error {
	var err error
	o.Conn, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}
	return nil
}

// Upload stores content under objectName, creating the bucket when needed,
// and returns a presigned download link.
func (o *ObjectStorage) Upload(ctx context.Context, bucketName, objectName string, content io.Reader, size int64, contentType string) (UploadInfo, error) {
	if o.Conn == nil {
		return UploadInfo{}, fmt.Errorf("object storage is not connected")
	}

	exists, err := o.Conn.BucketExists(ctx, bucketName)
	if err != nil {
		return UploadInfo{}, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	if !exists {
		if err := o.Conn.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: "us-east-1"}); err != nil {
			return UploadInfo{}, fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
	}

	info, err := o.Conn.PutObject(ctx, bucketName, objectName, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return UploadInfo{}, fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	presignedURL, err := o.Conn.PresignedGetObject(ctx, bucketName, objectName, PresignExpiry, nil)
	if err != nil {
		return UploadInfo{}, fmt.Errorf("failed to presign %s: %w", objectName, err)
	}

	return UploadInfo{
		ObjectName:   objectName,
		Size:         info.Size,
		PresignedURL: presignedURL.String(),
	}, nil
}
