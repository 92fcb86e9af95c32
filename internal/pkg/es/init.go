package es

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"

	"github.com/elastic/go-elasticsearch/v8"
)

var Client *elasticsearch.TypedClient

var ListingIndex string

const (
	NotFoundCode = 404
	ConflictCode = 409
)

// InitClient 初始化 Elasticsearch 客户端
func InitClient() error {
	elasticCfg := config.Cfg.Elastic
	ListingIndex = elasticCfg.Indices.ListingIndex

	client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Addresses: []string{elasticCfg.Address},
		Username:  elasticCfg.Username,
		Password:  elasticCfg.Password,
		Transport: logger.NewESTransport(),
	})
	if err != nil {
		return fmt.Errorf("create elasticsearch client: %w", err)
	}

	info, err := client.Info().Do(context.Background())
	if err != nil {
		return fmt.Errorf("connect to elasticsearch: %w", err)
	}

	Client = client
	log.Info("Connected to Elasticsearch", "version", info.Version.Int, "index", ListingIndex)
	return nil
}
