package domain

import (
	"context"
	"io"
)

// Объектное хранилище для загруженных файлов (S3/MinIO или память)
type BlobPutResult struct {
	StorageKey string
	Size       int64
	SHA256     []byte
}

type BlobObject struct {
	Body         io.ReadCloser
	ContentLen   int64
	ContentRange string
	ContentType  string
	ETag         string
}

type BlobStorage interface {
	// Сохранение нового файла (возвращает ключ/размер/хэш)
	Put(ctx context.Context, r io.Reader, hintName string, mime string) (BlobPutResult, error)
	// Получение контента (stream); rangeHeader в формате "bytes=START-END" (опционально)
	Get(ctx context.Context, storageKey string, rangeHeader string) (BlobObject, error)
	Delete(ctx context.Context, storageKey string) error
	Ping(ctx context.Context) error
}
