// Package storage хранит файлы участников (аватары) во внешнем объектном хранилище.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured возвращается, когда хранилище файлов не настроено.
var ErrNotConfigured = errors.New("file storage is not configured")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader - объектное хранилище. Ключи вида avatars/<user_id>/<uuid>.<ext>.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	// Delete не считает ошибкой отсутствие объекта.
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
