package models

import "time"

// Message is a single chat message within a consultation. Immutable once
// created; ordered by (SentAt, Seq) within its consultation.
type Message struct {
	ID             string    `bson:"id" json:"id"`
	ConsultationID string    `bson:"consultation_id" json:"consultationId"`
	SenderID       string    `bson:"sender_id" json:"senderId"`
	Content        string    `bson:"content" json:"content"`
	Anonymous      bool      `bson:"anonymous" json:"anonymous"`
	SentAt         time.Time `bson:"sent_at" json:"sentAt"`
	Seq            int64     `bson:"seq" json:"seq"` // per-consultation arrival sequence
}

// SendMessageRequest defines the payload for posting a message.
type SendMessageRequest struct {
	Content   string `json:"content" binding:"required"`
	Anonymous bool   `json:"anonymous"`
}
