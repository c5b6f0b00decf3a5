// Package storage persists uploaded files. The credential core only records
// the returned path; the bytes live on local disk or in an S3-compatible
// bucket depending on configuration.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/notevault/backend/internal/config"
)

type FileStore interface {
	// Save writes the file and returns the path to record on the user.
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (FileStore, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.UploadDir)
	case "s3":
		return NewS3Store(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
