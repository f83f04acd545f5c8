package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	ActionApplied  = "applied"
	ActionReverted = "reverted"
)

// Writer is the part of kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SeedEvent announces that a group of seeders was applied or reverted.
type SeedEvent struct {
	EventID    string    `json:"event_id"`
	Action     string    `json:"action"`
	GroupID    int64     `json:"group_id"`
	Seeds      []string  `json:"seeds"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewSeedEvent(action string, groupID int64, seeds []string) SeedEvent {
	if seeds == nil {
		seeds = []string{}
	}
	return SeedEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		GroupID:    groupID,
		Seeds:      seeds,
		OccurredAt: time.Now().UTC(),
	}
}

type Producer struct {
	Writer Writer
	Topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer, Topic: topic}
}

// PublishSeedEvent streams evt keyed by its event id.
func (p *Producer) PublishSeedEvent(ctx context.Context, evt SeedEvent) error {
	msgBytes, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(evt.EventID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
