package publisher

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type DefaultKafkaSubscriber struct {
	cfg    KafkaConfig
	logger *zap.Logger
}

func NewDefaultKafkaSubscriber(cfg KafkaConfig, logger *zap.Logger) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{cfg: cfg, logger: logger}
}

// Subscribe streams messages of topic until ctx is cancelled or the reader
// fails; the channel is closed in both cases. Offsets are committed by the
// consumer group as messages are read.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	dialer, err := k.cfg.dialer()
	if err != nil {
		return nil, err
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.cfg.Brokers,
		Topic:   topic,
		GroupID: groupID,
		Dialer:  dialer,
	})

	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					k.logger.Error("kafka reader stopped", zap.String("topic", topic), zap.Error(err))
				}
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
