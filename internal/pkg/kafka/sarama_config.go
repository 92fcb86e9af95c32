package kafka

import (
	"Vitrin/internal/api/config"
	"time"

	"github.com/IBM/sarama"
)

// newSaramaConfig 按配置初始化消费者组参数，位移手动提交
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetOldest
	c.Consumer.Offsets.AutoCommit.Enable = false

	consumer := kafkaCfg.Consumer
	if consumer.SessionTimeout > 0 {
		c.Consumer.Group.Session.Timeout = time.Duration(consumer.SessionTimeout) * time.Second
	}
	if consumer.HeartbeatInterval > 0 {
		c.Consumer.Group.Heartbeat.Interval = time.Duration(consumer.HeartbeatInterval) * time.Second
	}
	if consumer.RebalanceTimeout > 0 {
		c.Consumer.Group.Rebalance.Timeout = time.Duration(consumer.RebalanceTimeout) * time.Second
	}
	if consumer.MaxProcessingTime > 0 {
		c.Consumer.MaxProcessingTime = time.Duration(consumer.MaxProcessingTime) * time.Second
	}

	return c
}
