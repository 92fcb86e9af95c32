package kafka

import (
	"Vitrin/internal/api/config"
	"Vitrin/internal/pkg/es"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 Kafka 消费者
type ConsumerManager struct {
	topic           string
	listingConsumer sarama.ConsumerGroup
	listingHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 未开启 Kafka 时返回 nil
func NewConsumerManager(cfg *config.Config, listingESRepo es.ListingRepo) (*ConsumerManager, error) {
	if !cfg.Kafka.Enable {
		return nil, nil
	}
	saramaCfg := newSaramaConfig(cfg.Kafka)

	consumerCfg := cfg.KafkaListingConsumer
	listingConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, consumerCfg.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		topic:           consumerCfg.Topic,
		listingConsumer: listingConsumer,
		listingHandler:  NewListingsHandler(listingESRepo, consumerCfg.BatchSize),
	}, nil
}

// Start 阻塞直到 ctx 取消
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.listingConsumer.Errors() {
			log.Error("Error from listing consumer group", "err", err)
		}
	}()

	go func() {
		log.Info("Listing consumer started", "topic", m.topic)
		for {
			if err := m.listingConsumer.Consume(ctx, []string{m.topic}, m.listingHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.listingConsumer.Close(); err != nil {
		log.Error("Failed to close listing consumer", "err", err)
	}
	return nil
}
