package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

func TestProcessWithRetry(t *testing.T) {
	calls := 0
	ok := processWithRetry(context.Background(), &sarama.ConsumerMessage{}, func(context.Context, *sarama.ConsumerMessage) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if !ok || calls != 3 {
		t.Fatalf("ok=%v calls=%d", ok, calls)
	}

	calls = 0
	ok = processWithRetry(context.Background(), &sarama.ConsumerMessage{}, func(context.Context, *sarama.ConsumerMessage) error {
		calls++
		return ErrSkipMessage
	})
	if !ok || calls != 1 {
		t.Fatalf("skip must not retry, ok=%v calls=%d", ok, calls)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ok = processWithRetry(ctx, &sarama.ConsumerMessage{}, func(context.Context, *sarama.ConsumerMessage) error {
		return errors.New("permanent")
	})
	if ok {
		t.Fatal("cancelled session must stop retrying")
	}
}
