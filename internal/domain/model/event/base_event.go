package event

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	OrderCreatedEventName         EventType = "OrderCreated"
	OrderPaidEventName            EventType = "OrderPaid"
	OrderShippingUpdatedEventName EventType = "OrderShippingUpdated"
	OrderDeliveredEventName       EventType = "OrderDelivered"
	OrderCancelledEventName       EventType = "OrderCancelled"
	OrderDeletedEventName         EventType = "OrderDeleted"
)

type Event interface {
	Type() EventType
	GetID() string
	GetAggregateID() string
}

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
}

func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		CreatedAt:   time.Now().UTC(),
		EventType:   eventType,
	}
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

func (e *BaseEvent) GetAggregateID() string {
	return e.AggregateID
}

func (e *BaseEvent) Type() EventType {
	return e.EventType
}
