package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher forwards domain events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
	Close() error
}

type Producer struct {
	logger *zap.Logger
	w      *kafka.Writer
	topic  string
}

func NewProducer(logger *zap.Logger, brokers []string, topic string) *Producer {
	logger = logger.Named("kafka").With(zap.String("topic", topic))
	sugar := logger.Sugar()

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		Async:                  true,
		Logger:                 kafka.LoggerFunc(sugar.Debugf),
		ErrorLogger:            kafka.LoggerFunc(sugar.Errorf),
		AllowAutoTopicCreation: true,
	}

	return &Producer{logger: logger, w: w, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, key string, event interface{}) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: b,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.w.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
