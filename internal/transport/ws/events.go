package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeJoinServer  = "server.join"
	EventTypeLeaveServer = "server.leave"
	EventTypePing        = "ping"
)

// Event types - Server → Client. One type per push-contract method; payloads
// are full DTO snapshots, never deltas.
const (
	EventTypeServerUpdated   = "server.updated"
	EventTypeServerRemoved   = "server.removed"
	EventTypeUserJoined      = "user.joined"
	EventTypeUserLeft        = "user.left"
	EventTypeChannelAdded    = "channel.added"
	EventTypeChannelRemoved  = "channel.removed"
	EventTypeChannelUpdated  = "channel.updated"
	EventTypeMessageAdded    = "message.added"
	EventTypeMessageEdited   = "message.edited"
	EventTypeMessageRemoved  = "message.removed"
	EventTypeUsernameChanged = "username.changed"
	EventTypeAvatarChanged   = "avatar.changed"
	EventTypePong            = "pong"
	EventTypeError           = "error"
)

// Event is the envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ServerGroupPayload struct {
	ServerID uuid.UUID `json:"server_id"`
}

// --- Server → Client payloads ---

type ServerPayload struct {
	domain.Server
}

type ServerRemovedPayload struct {
	ID uuid.UUID `json:"id"`
}

type MemberPayload struct {
	domain.ServerMember
}

type UserLeftPayload struct {
	ServerID uuid.UUID `json:"server_id"`
	UserID   uuid.UUID `json:"user_id"`
}

type ChannelPayload struct {
	domain.Channel
}

type ChannelRemovedPayload struct {
	ServerID  uuid.UUID `json:"server_id"`
	ChannelID uuid.UUID `json:"channel_id"`
}

type MessagePayload struct {
	domain.Message
}

type MessageRemovedPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	MessageID uuid.UUID `json:"message_id"`
}

type UserPayload struct {
	domain.User
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
