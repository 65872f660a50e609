// Package events publishes domain events to Kafka. Publishing is
// best-effort: failures are logged and never fail the user action.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/models"
)

const (
	TypeMessageSent         = "message.sent"
	TypeMessageDeleted      = "message.deleted"
	TypeConversationCreated = "conversation.created"
)

type Envelope struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	Scope          string    `json:"scope,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher is nil-safe: a nil publisher drops everything, so callers
// can run without Kafka configured.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, key string, ev Envelope) {
	if p == nil {
		return
	}
	ev.At = time.Now().UTC()
	b, _ := json.Marshal(ev)
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		p.log.Warnw("kafka publish", "type", ev.Type, "err", err)
	}
}

func (p *Publisher) MessageSent(ctx context.Context, m *models.Message) {
	p.publish(ctx, m.ConversationID, Envelope{
		Type:           TypeMessageSent,
		ConversationID: m.ConversationID,
		MessageID:      m.ID,
		ActorID:        m.SenderID,
	})
}

func (p *Publisher) MessageDeleted(ctx context.Context, conversationID, messageID, actorID, scope string) {
	p.publish(ctx, conversationID, Envelope{
		Type:           TypeMessageDeleted,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        actorID,
		Scope:          scope,
	})
}

func (p *Publisher) ConversationCreated(ctx context.Context, c *models.Conversation) {
	actor := ""
	if len(c.Participants) > 0 {
		actor = c.Participants[0]
	}
	p.publish(ctx, c.ID, Envelope{
		Type:           TypeConversationCreated,
		ConversationID: c.ID,
		ActorID:        actor,
	})
}
