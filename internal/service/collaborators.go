package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
)

// Notifier pushes committed state changes to connected clients. One method per
// event kind; every payload is a full DTO snapshot, never a delta.
// Implementations are best-effort and non-blocking: delivery failures are
// logged, never returned, because the operation that triggered the push has
// already committed.
type Notifier interface {
	ServerUpdated(srv *domain.Server)
	ServerRemoved(serverID uuid.UUID)
	UserJoined(member *domain.ServerMember)
	UserLeft(serverID, userID uuid.UUID)
	ChannelAdded(ch *domain.Channel)
	ChannelRemoved(serverID, channelID uuid.UUID)
	ChannelUpdated(ch *domain.Channel)
	MessageAdded(serverID uuid.UUID, msg *domain.Message)
	MessageEdited(serverID uuid.UUID, msg *domain.Message)
	MessageRemoved(serverID, channelID, messageID uuid.UUID)
	UsernameChanged(user *domain.User)
	AvatarChanged(user *domain.User)
}

// ConnectionRegistry is the slice of the live-connection registry the pipeline
// commands directly: on server leave or kick it revokes the group membership
// of every one of the user's connections before the operation returns.
type ConnectionRegistry interface {
	ConnectionsForUser(userID uuid.UUID) []uuid.UUID
	LeaveGroup(connectionID uuid.UUID, group string)
}

// FileStore is the binary storage collaborator.
type FileStore interface {
	Upload(ctx context.Context, data []byte, suggestedName string) (string, error)
	Delete(ctx context.Context, storedName string) (bool, error)
	GetByName(ctx context.Context, storedName string) ([]byte, error)
	GeneratePreview(data []byte) (preview []byte, width, height int, err error)
}
