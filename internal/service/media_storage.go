package service

import (
	"Vitrin/internal/pkg/minio"
	"context"
	"io"
)

// MediaStorage 对象存储，暂存桶放草稿文件，主桶放已发布的媒体
type MediaStorage interface {
	UploadTemp(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	CopyToMain(ctx context.Context, tempKey, objectName string) (string, error)
	DeleteMain(ctx context.Context, key string) error
	DeleteTemp(ctx context.Context, key string) error
	PresignTemp(ctx context.Context, key string) (string, error)
	PublicURL(key string) string
}

type minioStorage struct{}

func NewMinioStorage() MediaStorage {
	return minioStorage{}
}

func (minioStorage) UploadTemp(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	return minio.UploadTempFile(ctx, objectName, reader, size, contentType)
}

func (minioStorage) CopyToMain(ctx context.Context, tempKey, objectName string) (string, error) {
	return minio.CopyToMain(ctx, tempKey, objectName)
}

func (minioStorage) DeleteMain(ctx context.Context, key string) error {
	return minio.DeleteFile(ctx, key)
}

func (minioStorage) DeleteTemp(ctx context.Context, key string) error {
	return minio.DeleteTempFile(ctx, key)
}

func (minioStorage) PresignTemp(ctx context.Context, key string) (string, error) {
	return minio.PresignTemp(ctx, key)
}

func (minioStorage) PublicURL(key string) string {
	return minio.GetPublicURL(key)
}
