package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByAvatar(ctx context.Context, storedName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type ServerRepository interface {
	Create(ctx context.Context, server *domain.Server) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Server, error)
	GetByName(ctx context.Context, name string) (*domain.Server, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Server, error)
	Update(ctx context.Context, server *domain.Server) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, member *domain.ServerMember) error
	RemoveMember(ctx context.Context, serverID, userID uuid.UUID) error
	GetMember(ctx context.Context, serverID, userID uuid.UUID) (*domain.ServerMember, error)
	ListMembers(ctx context.Context, serverID uuid.UUID) ([]domain.ServerMember, error)
	SetMemberRole(ctx context.Context, serverID, userID uuid.UUID, role string) error
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error)
	GetByName(ctx context.Context, serverID uuid.UUID, name string) (*domain.Channel, error)
	ListByServer(ctx context.Context, serverID uuid.UUID) ([]domain.Channel, error)
	Update(ctx context.Context, channel *domain.Channel) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByChannel(ctx context.Context, channelID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error)
	Update(ctx context.Context, msg *domain.Message) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) error
	// GetByStoredName matches either the stored file name or the preview name.
	GetByStoredName(ctx context.Context, storedName string) (*domain.Attachment, error)
	// ServerForStoredName resolves the server owning the message the file is
	// attached to, or nil when no attachment carries that name.
	ServerForStoredName(ctx context.Context, storedName string) (*uuid.UUID, error)
	ListStoredNamesByServer(ctx context.Context, serverID uuid.UUID) ([]string, error)
	ListStoredNamesByChannel(ctx context.Context, channelID uuid.UUID) ([]string, error)
	ListStoredNamesByMessage(ctx context.Context, messageID uuid.UUID) ([]string, error)
}

// UnitOfWork opens the transactional boundary every mutating operation runs
// inside. The returned Tx exposes transaction-bound repositories; nothing is
// visible to readers or notified to clients until Commit returns nil.
type UnitOfWork interface {
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	Users() UserRepository
	Servers() ServerRepository
	Channels() ChannelRepository
	Messages() MessageRepository
	Attachments() AttachmentRepository
	Commit(ctx context.Context) error
	// Rollback after a successful Commit is a no-op, so it is safe to defer.
	Rollback(ctx context.Context) error
}
