package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"skin-bot/internal/domain/port"
)

// Config — настройки S3-совместимого хранилища снимков.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ImageStore кладёт снимок во временное S3-хранилище и отдаёт presigned
// ссылку: удалённому сегментатору нужен публичный URL, а не байты.
type ImageStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	log    *slog.Logger
}

// NewImageStore подключается к хранилищу и при необходимости создаёт бакет.
func NewImageStore(ctx context.Context, cfg Config, log *slog.Logger) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
		log.Info("создан бакет для снимков", "bucket", cfg.Bucket)
	}

	return &ImageStore{
		client: client,
		bucket: cfg.Bucket,
		// Ссылка живёт заведомо дольше полного прохода сегментации.
		expiry: time.Hour,
		log:    log,
	}, nil
}

// Upload сохраняет снимок под случайным ключом и возвращает presigned URL.
func (s *ImageStore) Upload(ctx context.Context, image []byte) (string, error) {
	key := "uploads/" + uuid.NewString() + ".jpg"

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(image), int64(len(image)),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign image url: %w", err)
	}

	s.log.Debug("снимок загружен", "key", key)
	return presigned.String(), nil
}

// Проверка реализации интерфейса
var _ port.ImageUploader = (*ImageStore)(nil)
