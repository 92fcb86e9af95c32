package minio

import (
	"Vitrin/internal/api/config"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

var errNotInitialized = errors.New("minio client is not initialized")

func putObject(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", errNotInitialized
	}
	info, err := Client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return info.Key, nil
}

func removeObject(ctx context.Context, bucket, objectName string) error {
	if Client == nil {
		return errNotInitialized
	}
	if err := Client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// UploadTempFile 上传到暂存桶
func UploadTempFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	return putObject(ctx, TempBucket, objectName, reader, size, contentType)
}

// CopyToMain 服务端复制暂存对象到主存储桶，返回主桶中的 key
func CopyToMain(ctx context.Context, tempKey, objectName string) (string, error) {
	if Client == nil {
		return "", errNotInitialized
	}
	info, err := Client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: MainBucket, Object: objectName},
		minio.CopySrcOptions{Bucket: TempBucket, Object: tempKey},
	)
	if err != nil {
		return "", fmt.Errorf("copy %s to main bucket: %w", tempKey, err)
	}
	return info.Key, nil
}

// DeleteFile 删除主存储桶中的对象
func DeleteFile(ctx context.Context, objectName string) error {
	return removeObject(ctx, MainBucket, objectName)
}

// DeleteTempFile 删除暂存桶中的对象
func DeleteTempFile(ctx context.Context, objectName string) error {
	return removeObject(ctx, TempBucket, objectName)
}

// GetPublicURL 获取主存储桶对象的公共访问URL，已是完整地址时原样返回
func GetPublicURL(objectName string) string {
	if strings.HasPrefix(objectName, "http://") || strings.HasPrefix(objectName, "https://") {
		return objectName
	}
	base := publicBase
	if base == nil {
		base = &url.URL{Scheme: "http", Host: config.Cfg.MinIO.ExternalEndpoint}
	}
	return base.JoinPath(MainBucket, objectName).String()
}

// PresignTemp 暂存对象的临时访问地址
func PresignTemp(ctx context.Context, objectName string) (string, error) {
	if Client == nil {
		return "", errNotInitialized
	}
	expiry := time.Duration(config.Cfg.MinIO.PresignMinutes) * time.Minute
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := Client.PresignedGetObject(ctx, TempBucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}
