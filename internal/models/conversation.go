package models

import "time"

// ParticipantDetail carries per-participant conversation metadata.
// LastSeen is set for the creator at creation time and nil for the
// counterpart until they open the conversation.
type ParticipantDetail struct {
	LastSeen *time.Time `bson:"last_seen" json:"last_seen"`
}

// Conversation is a two-party thread. Participants is stored as an
// array but membership is order-insignificant; at most one conversation
// exists per unordered pair under sequential creation.
type Conversation struct {
	ID                 string                       `bson:"_id,omitempty" json:"id"`
	Participants       []string                     `bson:"participants" json:"participants"`
	ParticipantDetails map[string]ParticipantDetail `bson:"participant_details,omitempty" json:"participant_details,omitempty"`
	LastMessage        string                       `bson:"last_message" json:"last_message"`
	LastMessageAt      time.Time                    `bson:"last_message_at" json:"last_message_at"`
	CreatedAt          time.Time                    `bson:"created_at" json:"created_at"`
}

// Counterpart returns the first participant that is not userID.
func (c *Conversation) Counterpart(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether userID is a member.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
