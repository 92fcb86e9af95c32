package kafka

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	defaultBatchSize = 32
	batchTimeout     = 1 * time.Second
	maxRetryInterval = 5 * time.Second
)

// ErrSkipMessage 与当前消费者无关的消息，直接确认
var ErrSkipMessage = errors.New("skip message")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批后处理，批次满或超时都会触发
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, size int, logic LogicFunc) error {
	if size <= 0 {
		size = defaultBatchSize
	}
	batch := make([]*sarama.ConsumerMessage, 0, size)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= size {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, size)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, size)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 同一房源的多条变更必须按顺序处理，按 key 分组后组内串行
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	groups := make(map[string][]*sarama.ConsumerMessage)
	var order []string
	for _, m := range messages {
		k := string(m.Key)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], m)
	}

	var wg sync.WaitGroup
	for _, k := range order {
		wg.Add(1)
		go func(msgs []*sarama.ConsumerMessage) {
			defer wg.Done()
			for _, m := range msgs {
				if !processWithRetry(session.Context(), m, logic) {
					return
				}
			}
		}(groups[k])
	}
	wg.Wait()

	if session.Context().Err() != nil {
		return
	}
	session.MarkMessage(messages[len(messages)-1], "")
}

// processWithRetry 失败后指数退避重试，会话结束时返回 false
func processWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) bool {
	retryInterval := 100 * time.Millisecond
	for {
		err := logic(ctx, m)
		if err == nil || errors.Is(err, ErrSkipMessage) {
			return true
		}
		log.Error("process message error", "topic", m.Topic, "offset", m.Offset, "err", err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(retryInterval):
		}
		retryInterval = min(retryInterval*2, maxRetryInterval)
	}
}

// ToCanalMessage 将kafka消息转换为canal消息结构体
func ToCanalMessage(msg *sarama.ConsumerMessage, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		// 格式错误的消息重试也无法成功
		log.Warn("unmarshal canal message error", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		return nil, errors.Wrap(ErrSkipMessage, err.Error())
	}

	if canalMsg.IsDDL || canalMsg.Table != tableName {
		return nil, ErrSkipMessage
	}

	if len(canalMsg.Data) == 0 {
		return nil, errors.Wrapf(ErrSkipMessage, "empty data, table %s", tableName)
	}

	return &canalMsg, nil
}
