package minio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type PutObjectOptions struct {
	ContentType  string
	UserMetadata map[string]string
	CacheControl string
}

func (o PutObjectOptions) toMinio() minio.PutObjectOptions {
	return minio.PutObjectOptions{
		ContentType:  o.ContentType,
		UserMetadata: o.UserMetadata,
		CacheControl: o.CacheControl,
	}
}

type UploadInfo struct {
	Bucket       string
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
	VersionID    string
}

func toUploadInfo(info minio.UploadInfo) UploadInfo {
	return UploadInfo{
		Bucket:       info.Bucket,
		Key:          info.Key,
		ETag:         info.ETag,
		Size:         info.Size,
		LastModified: info.LastModified,
		VersionID:    info.VersionID,
	}
}

func (c *Client) checkNames(op, bucket, object string) error {
	if err := c.checkClosed(op); err != nil {
		return err
	}
	if bucket == "" {
		return WrapError(op, ErrInvalidBucketName, bucket, object)
	}
	if object == "" {
		return WrapError(op, ErrInvalidObjectName, bucket, object)
	}
	return nil
}

// FPutObject uploads a local file.
func (c *Client) FPutObject(ctx context.Context, bucket, object, filePath string, opts PutObjectOptions) (UploadInfo, error) {
	if err := c.checkNames("FPutObject", bucket, object); err != nil {
		return UploadInfo{}, err
	}
	if filePath == "" {
		return UploadInfo{}, WrapErrorWithMessage("FPutObject", ErrInvalidArgument, "file path is required")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	info, err := c.client.FPutObject(ctx, bucket, object, filePath, opts.toMinio())
	if err != nil {
		return UploadInfo{}, WrapError("FPutObject", err, bucket, object)
	}

	c.logger.Info("file uploaded",
		zap.String("bucket", bucket),
		zap.String("object", object),
		zap.String("file_path", filePath),
		zap.Int64("size", info.Size),
	)
	return toUploadInfo(info), nil
}

// ReadObject downloads a whole object into memory. Objects larger than
// MaxObjectSize are rejected with ErrObjectTooLarge.
func (c *Client) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	if err := c.checkNames("ReadObject", bucket, object); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	obj, err := c.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, WrapError("ReadObject", err, bucket, object)
	}
	defer obj.Close()

	limit := c.config.MaxObjectSize
	data, err := io.ReadAll(io.LimitReader(obj, limit+1))
	if err != nil {
		return nil, WrapError("ReadObject", err, bucket, object)
	}
	if int64(len(data)) > limit {
		return nil, WrapError("ReadObject", fmt.Errorf("%w: limit %d bytes", ErrObjectTooLarge, limit), bucket, object)
	}
	return data, nil
}
