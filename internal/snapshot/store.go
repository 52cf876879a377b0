// Package snapshot archives rendered DDL dumps on object storage for
// diagnostics and history. Archiving is strictly best-effort: a failed
// write never fails the schema request that produced the dump.
//
// Callers depend only on this package — never on a specific provider
// package.
package snapshot

import "context"

// Store is the interface all snapshot storage providers implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Put writes data under key, overwriting any previous snapshot.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the snapshot stored under key, failing NotFound when no
	// snapshot exists.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config holds the settings for an object-storage snapshot backend.
type Config struct {
	// Endpoint is the host:port of the storage server.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Bucket is the bucket all snapshots are written to.
	Bucket string
}
