package minio

import (
	"context"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type MakeBucketOptions struct {
	Region        string
	ObjectLocking bool
}

func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := c.checkClosed("BucketExists"); err != nil {
		return false, err
	}
	if bucket == "" {
		return false, WrapError("BucketExists", ErrInvalidBucketName, bucket, "")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, WrapError("BucketExists", err, bucket, "")
	}
	return exists, nil
}

func (c *Client) MakeBucket(ctx context.Context, bucket string, opts MakeBucketOptions) error {
	if err := c.checkClosed("MakeBucket"); err != nil {
		return err
	}
	if bucket == "" {
		return WrapError("MakeBucket", ErrInvalidBucketName, bucket, "")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{
		Region:        opts.Region,
		ObjectLocking: opts.ObjectLocking,
	})
	if err != nil {
		return WrapError("MakeBucket", err, bucket, "")
	}

	c.logger.Info("bucket created", zap.String("bucket", bucket))
	return nil
}

// EnsureBucket creates bucket unless it already exists. A concurrent
// creator winning the race is not an error.
func (c *Client) EnsureBucket(ctx context.Context, bucket string, opts MakeBucketOptions) error {
	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := c.MakeBucket(ctx, bucket, opts); err != nil && !IsBucketAlreadyExists(err) {
		return err
	}
	return nil
}
