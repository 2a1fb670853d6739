package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

type KafkaConsumer struct {
	reader *kafka.Reader
	log    logrus.FieldLogger
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{writer: writer}
}

func NewKafkaConsumer(brokers []string, topic, groupID string, log logrus.FieldLogger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1 * time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &KafkaConsumer{reader: reader, log: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	return p.writer.WriteMessages(ctx, message)
}

// Subscribe blocks until ctx is cancelled or the reader fails.
// Handler errors are logged and the message is skipped.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler func(Message) error) error {
	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		msg := Message{
			Key:   string(message.Key),
			Value: message.Value,
			Topic: message.Topic,
		}

		if err := handler(msg); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"topic":  message.Topic,
				"offset": message.Offset,
			}).Error("Failed to handle message")
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type Message struct {
	Key   string
	Value []byte
	Topic string
}

type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventFriendshipRequested EventType = "friendship_requested"
	EventFriendshipAccepted  EventType = "friendship_accepted"
	EventFriendshipDeclined  EventType = "friendship_declined"
	EventFriendshipDeleted   EventType = "friendship_deleted"
	EventPostCreated         EventType = "post_created"
	EventPostDeleted         EventType = "post_deleted"
	EventCommentCreated      EventType = "comment_created"
	EventCommentDeleted      EventType = "comment_deleted"
	EventLikeCreated         EventType = "like_created"
	EventLikeDeleted         EventType = "like_deleted"
	EventMessageCreated      EventType = "message_created"
	EventMessagesRead        EventType = "messages_read"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps a fresh id and the current time.
func NewEvent(eventType EventType, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// RawEvent is the consumer-side view of Event with the payload left undecoded.
type RawEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func DecodeEvent(value []byte) (*RawEvent, error) {
	var event RawEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

type UserEventData struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

type FriendshipEventData struct {
	UserID   uint `json:"user_id"`
	FriendID uint `json:"friend_id"`
}

type PostEventData struct {
	PostID uint `json:"post_id"`
	UserID uint `json:"user_id"`
}

type CommentEventData struct {
	CommentID       uint  `json:"comment_id"`
	UserID          uint  `json:"user_id"`
	PostID          uint  `json:"post_id"`
	ParentCommentID *uint `json:"parent_comment_id,omitempty"`
}

type LikeEventData struct {
	UserID uint `json:"user_id"`
	PostID uint `json:"post_id"`
}

type MessageEventData struct {
	MessageID  uint `json:"message_id"`
	UserIDFrom uint `json:"user_id_from"`
	UserIDTo   uint `json:"user_id_to"`
}
