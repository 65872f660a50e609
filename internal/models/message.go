package models

import "time"

// ReplySnapshot is a denormalized copy of the quoted message taken at
// send time. It is never re-joined against the live message.
type ReplySnapshot struct {
	ID       string `bson:"id" json:"id"`
	Text     string `bson:"text" json:"text"`
	SenderID string `bson:"sender_id" json:"sender_id"`
}

// Message text and ReplyTo are immutable after creation; only
// DeletedFor and document existence change afterwards.
type Message struct {
	ID             string         `bson:"_id,omitempty" json:"id"`
	ConversationID string         `bson:"conversation_id" json:"conversation_id"`
	SenderID       string         `bson:"sender_id" json:"sender_id"`
	Text           string         `bson:"text" json:"text"`
	Timestamp      time.Time      `bson:"timestamp" json:"timestamp"`
	ReplyTo        *ReplySnapshot `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	DeletedFor     []string       `bson:"deleted_for,omitempty" json:"deleted_for,omitempty"`
}

// HiddenFor reports whether the message is soft-deleted for userID.
func (m *Message) HiddenFor(userID string) bool {
	for _, id := range m.DeletedFor {
		if id == userID {
			return true
		}
	}
	return false
}
