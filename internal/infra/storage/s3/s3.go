package s3

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/infra/storage/byterange"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Storage хранит загруженные файлы ресурсов (видео/аудио/документы) в S3/MinIO
type Storage struct {
	cl     *minio.Client
	bucket string
	region string
	log    zerolog.Logger
}

func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	s := &Storage{cl: cl, bucket: cfg.Bucket, region: cfg.Region, log: log}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %q: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %q: %w", s.bucket, err)
	}
	s.log.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		s.log.Error().Err(err).Msg("ping failed")
	}
	return err
}

// Put загружает поток и возвращает итоговый ключ вида "sha256/<hex>" и размер.
func (s *Storage) Put(ctx context.Context, r io.Reader, hintName string, mime string) (domain.BlobPutResult, error) {
	h := sha256.New()
	pr, pw := io.Pipe()
	mw := io.MultiWriter(h, pw)

	// копируем в пайп и считаем sha параллельно
	go func() {
		_, copyErr := io.Copy(mw, r)
		pw.CloseWithError(copyErr)
	}()

	tmpKey := "tmp/" + uuid.NewString() + "-" + sanitize(hintName)
	info, err := s.cl.PutObject(ctx, s.bucket, tmpKey, pr, -1, minio.PutObjectOptions{
		ContentType: mime,
	})
	if err != nil {
		_ = pr.CloseWithError(err)
		return domain.BlobPutResult{}, err
	}

	sha := h.Sum(nil)
	finalKey := fmt.Sprintf("sha256/%x", sha)
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: tmpKey}
	dst := minio.CopyDestOptions{Bucket: s.bucket, Object: finalKey}
	if _, err := s.cl.CopyObject(ctx, dst, src); err != nil {
		_ = s.cl.RemoveObject(ctx, s.bucket, tmpKey, minio.RemoveObjectOptions{})
		return domain.BlobPutResult{}, err
	}
	_ = s.cl.RemoveObject(ctx, s.bucket, tmpKey, minio.RemoveObjectOptions{})

	s.log.Debug().Str("key", finalKey).Int64("size", info.Size).Str("mime", mime).Msg("object stored")
	return domain.BlobPutResult{StorageKey: finalKey, Size: info.Size, SHA256: sha}, nil
}

// Get открывает поток для чтения.
// rangeHeader в формате "bytes=START-END" (опционально).
func (s *Storage) Get(ctx context.Context, storageKey string, rangeHeader string) (domain.BlobObject, error) {
	// 1) HEAD: базовая мета (размер всего объекта, content-type, etag)
	info, err := s.cl.StatObject(ctx, s.bucket, storageKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return domain.BlobObject{}, fmt.Errorf("%w: object %s", domain.ErrNotFound, storageKey)
		}
		return domain.BlobObject{}, err
	}
	out := domain.BlobObject{
		ContentLen:  info.Size,
		ContentType: info.ContentType,
		ETag:        info.ETag,
	}

	// 2) Диапазон (если есть)
	opts := minio.GetObjectOptions{}
	if start, end, ok := byterange.Parse(rangeHeader, info.Size); ok {
		// NB: SetRange принимает включающие границы [start, end]
		if err := opts.SetRange(start, end); err != nil {
			return domain.BlobObject{}, err
		}
		out.ContentLen = end - start + 1
		out.ContentRange = byterange.ContentRange(start, end, info.Size)
	}

	// 3) Поток (Stat на объекте не вызываем, мета уже есть из HEAD)
	obj, err := s.cl.GetObject(ctx, s.bucket, storageKey, opts)
	if err != nil {
		return domain.BlobObject{}, err
	}
	out.Body = obj
	return out, nil
}

func (s *Storage) Delete(ctx context.Context, storageKey string) error {
	err := s.cl.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{})
	if err != nil {
		s.log.Error().Err(err).Str("key", storageKey).Msg("remove failed")
	}
	return err
}

func sanitize(name string) string {
	u := url.PathEscape(name)
	return strings.ReplaceAll(u, "%2F", "_")
}
