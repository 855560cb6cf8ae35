package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID   `json:"id"`
	ChannelID  uuid.UUID   `json:"channel_id"`
	SenderID   uuid.UUID   `json:"sender_id"`
	Text       string      `json:"text"`
	SentAt     time.Time   `json:"sent_at"`
	IsEdited   bool        `json:"is_edited"`
	Attachment *Attachment `json:"attachment,omitempty"`
	// Joined fields
	SenderUsername string `json:"sender_username,omitempty"`
}
