// Package minio provides a MinIO implementation of snapshot.Store.
package minio

import (
	"bytes"
	"context"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/snapshot"
)

// Driver is a MinIO implementation of snapshot.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
}

// New connects to MinIO using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg snapshot.Config) (*Driver, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errs.New(errs.ErrKindConfig, "snapshot: endpoint and bucket are required")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExternal, "failed to create minio client", err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// --- snapshot.Store implementation ---

// Ping verifies the bucket exists and is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.Newf(errs.ErrKindNotFound, "bucket %q does not exist", d.bucket)
	}
	return nil
}

// Close is a no-op for MinIO — the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Put writes data under key, overwriting any previous snapshot.
func (d *Driver) Put(ctx context.Context, key string, data []byte) error {
	_, err := d.client.PutObject(ctx, d.bucket, key, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: "application/sql"})
	if err != nil {
		return mapError(err, "failed to store snapshot")
	}
	return nil
}

// Get returns the snapshot stored under key.
func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get snapshot")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, "failed to read snapshot")
	}
	return data, nil
}

// mapError translates MinIO native errors into *errs.Error.
func mapError(err error, msg string) error {
	resp := miniogo.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case "AccessDenied":
		return errs.Wrap(errs.ErrKindExternal, msg, err)
	default:
		return errs.Wrap(errs.ErrKindExternal, msg, err)
	}
}
