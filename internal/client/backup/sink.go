// Package backup stores exported AppData documents outside the local store,
// either as files in a directory or as objects in an S3 bucket.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrInvalidName    = errors.New("invalid backup name")
)

// Sink is a named blob store for export documents.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

type Config struct {
	Driver      string // file | s3
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// Open builds the sink selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileSink(cfg.Dir)
	case "s3":
		return NewS3Sink(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown backup driver %q", cfg.Driver)
	}
}

// validateName accepts plain names only: no directories, no "." or "..".
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
