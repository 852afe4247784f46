package models

import (
	"time"
)

// Session backs one refresh token; its ID is the token's jti.
type Session struct {
	ID        string    `bson:"_id" json:"id" firestore:"-"`
	UserID    string    `bson:"user_id" json:"user_id" firestore:"user_id"`
	IP        string    `bson:"ip" json:"ip" firestore:"ip"`
	Device    string    `bson:"device" json:"device" firestore:"device"`
	CreatedAt time.Time `bson:"created_at" json:"created_at" firestore:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at" firestore:"expires_at"`
}
