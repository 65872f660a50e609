package models

import "time"

type User struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	Email       string     `bson:"email" json:"email"`
	DisplayName string     `bson:"display_name" json:"display_name"`
	PhotoURL    string     `bson:"photo_url" json:"photo_url"`
	IsPrivate   bool       `bson:"is_private" json:"is_private"`
	Status      string     `bson:"status,omitempty" json:"status,omitempty"`
	LastSeen    *time.Time `bson:"last_seen,omitempty" json:"last_seen,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}
