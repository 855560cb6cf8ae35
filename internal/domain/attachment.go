package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment content kinds.
const (
	KindImage    = "image"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindDocument = "document"
	KindOther    = "other"
)

type Attachment struct {
	ID          uuid.UUID  `json:"id"`
	MessageID   *uuid.UUID `json:"message_id,omitempty"`
	DisplayName string     `json:"display_name"`
	StoredName  string     `json:"stored_name"`
	PreviewName *string    `json:"preview_name,omitempty"`
	Size        int64      `json:"size"`
	Kind        string     `json:"kind"`
	Width       *int       `json:"width,omitempty"`
	Height      *int       `json:"height,omitempty"`
	UploadedAt  time.Time  `json:"uploaded_at"`
}
