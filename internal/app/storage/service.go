package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"splitchat/internal/pkg/randx"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// S3PublicBaseURL is the public prefix served for uploaded objects,
	// without a trailing slash.
	S3PublicBaseURL string
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// Upload streams the file body to storage under key and returns its
	// public URL.
	Upload(ctx context.Context, body io.Reader, key string, mimeType string) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// DeleteByURL removes the file a public URL points at. URLs outside the
	// configured public prefix are ignored.
	DeleteByURL(ctx context.Context, url string) error

	// GetObjectMetadata retrieves the object's metadata.
	GetObjectMetadata(ctx context.Context, key string) (map[string]string, error)
}

// NewStorageService is the factory function for StorageService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}

// ObjectKey builds a collision-free key under folder, keeping the original
// file extension so served objects get a sensible content type.
func ObjectKey(folder, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return folder + "/" + randx.NewID() + ext
}

// KeyFromURL extracts the object key from a public URL, reporting whether the
// URL belongs to baseURL at all.
func KeyFromURL(url, baseURL string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}
