package minio

import (
	"Vitrin/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

var (
	// Client 全局 MinIO 客户端实例
	Client *minio.Client
	// MainBucket 已发布媒体
	MainBucket string
	// TempBucket 草稿暂存，一天后自动过期
	TempBucket string
	// publicBase 对外访问的地址
	publicBase *url.URL
)

// Init 初始化 MinIO 客户端并确保存储桶存在
func Init() error {
	cfg := config.Cfg.MinIO

	endpoint, useSSL := cfg.InternalEndpoint, cfg.InternalUseSSL
	if endpoint == "" {
		endpoint, useSSL = cfg.ExternalEndpoint, cfg.ExternalUseSSL
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	scheme := "http"
	if cfg.ExternalUseSSL {
		scheme = "https"
	}
	external := cfg.ExternalEndpoint
	if external == "" {
		external = endpoint
	}
	publicBase = &url.URL{Scheme: scheme, Host: external}

	Client = client
	MainBucket = cfg.MainBucket
	TempBucket = cfg.TempBucket

	ctx := context.Background()
	for _, bucket := range []string{MainBucket, TempBucket} {
		if err = ensureBucket(ctx, bucket); err != nil {
			return err
		}
	}
	return EnsureTempBucketLifecycle(ctx)
}

func ensureBucket(ctx context.Context, bucket string) error {
	exists, err := Client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if exists {
		return nil
	}
	if err = Client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	log.Info("MinIO bucket created", "bucket", bucket)
	return nil
}

// EnsureTempBucketLifecycle 暂存桶对象一天后过期
func EnsureTempBucketLifecycle(ctx context.Context) error {
	lcConfig, err := Client.GetBucketLifecycle(ctx, TempBucket)
	if err != nil {
		lcConfig = lifecycle.NewConfiguration()
	}

	const targetDays = 1
	for _, rule := range lcConfig.Rules {
		if rule.Status == "Enabled" &&
			rule.Expiration.Days == targetDays &&
			rule.RuleFilter.Prefix == "" {
			log.Info("TempBucket lifecycle rule present", "ruleID", rule.ID)
			return nil
		}
	}

	lcConfig.Rules = append(lcConfig.Rules, lifecycle.Rule{
		ID:     "DraftAutoExpireRule",
		Status: "Enabled",
		Expiration: lifecycle.Expiration{
			Days: targetDays,
		},
	})
	if err = Client.SetBucketLifecycle(ctx, TempBucket, lcConfig); err != nil {
		return fmt.Errorf("set temp bucket lifecycle: %w", err)
	}
	log.Info("TempBucket lifecycle rule added", "days", targetDays)
	return nil
}
