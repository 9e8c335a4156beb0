package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hango1705/bongland-backend/internal/domain/model/event"
	"github.com/hango1705/bongland-backend/internal/infra/kafka_client"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// IOrderEventPublisher 訂單事件發布
type IOrderEventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

type OrderProducer struct {
	producer kafka_client.Producer
}

func NewOrderProducer(producer kafka_client.Producer) *OrderProducer {
	return &OrderProducer{producer: producer}
}

// Publish 以 orderID 當 key，同一張訂單的事件落在同一個 partition
func (p *OrderProducer) Publish(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		msg, err := convertToMessage(evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.producer.Produce(ctx, msgs...)
}

func convertToMessage(evt event.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s failed: %w", evt.Type(), err)
	}

	return kafka.Message{
		Key:   []byte(evt.GetAggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   HeaderEventType,
				Value: []byte(evt.Type()),
			},
			{
				Key:   HeaderEventID,
				Value: []byte(evt.GetID()),
			},
		},
	}, nil
}

// NoopPublisher kafka 未設定時使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...event.Event) error {
	return nil
}

var (
	_ IOrderEventPublisher = (*OrderProducer)(nil)
	_ IOrderEventPublisher = NoopPublisher{}
)
