// Package storage abstracts object storage for customer uploads (return
// evidence photos). Keys are server-generated; the original filename only
// contributes its extension.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

// safeExt whitelists image extensions; anything else is stored without one.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ""
	}
}
