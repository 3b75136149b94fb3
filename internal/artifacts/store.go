// Package artifacts stores failure screenshots and reports, either in a
// local directory or in an S3-compatible bucket.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kuitang/landingcheck/internal/config"
)

// Store persists one artifact and returns where it can be found.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// DirStore writes artifacts under Root, creating directories as needed.
type DirStore struct {
	Root string
}

// NewDirStore returns a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Root: dir}
}

// Put writes data to Root/key and returns the file path.
func (d *DirStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.FromSlash(path.Clean("/" + key))[1:]
	if clean == "" {
		return "", fmt.Errorf("artifacts: empty key")
	}
	full := filepath.Join(d.Root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("artifacts: create dir for %q: %w", key, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil { //nolint:gosec // artifacts are meant to be readable
		return "", fmt.Errorf("artifacts: write %q: %w", key, err)
	}
	return full, nil
}

// NewFromConfig picks S3 when a bucket is configured, otherwise the
// artifacts directory.
func NewFromConfig(ctx context.Context, cfg config.Artifacts) (Store, error) {
	if cfg.S3Bucket == "" {
		return NewDirStore(cfg.Dir), nil
	}
	return NewS3Store(ctx, S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		BucketName:      cfg.S3Bucket,
		UsePathStyle:    cfg.S3PathStyle,
	})
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key builds an object key from path segments, replacing characters that
// are awkward in file names and URLs.
func Key(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(unsafeKeyChars.ReplaceAllString(p, "-"), "-")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
