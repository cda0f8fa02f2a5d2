// Package storage abstracts blob storage for book covers and PDF files.
package storage

import (
	"context"
	"io"
)

// UploadInput describes one blob to store.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object describes a stored blob.
type Object struct {
	Key  string
	URL  string
	Size int64
}

// Storage stores and serves uploaded files.
type Storage interface {
	Upload(ctx context.Context, in *UploadInput) (*Object, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}
