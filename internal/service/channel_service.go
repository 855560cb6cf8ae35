package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/repository"
)

type ChannelService struct {
	uow         repository.UnitOfWork
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
	files       FileStore
	notifier    Notifier
}

func NewChannelService(uow repository.UnitOfWork, channelRepo repository.ChannelRepository, serverRepo repository.ServerRepository, files FileStore) *ChannelService {
	return &ChannelService{
		uow:         uow,
		channelRepo: channelRepo,
		serverRepo:  serverRepo,
		files:       files,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ChannelService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateChannelInput struct {
	Name string `json:"name"`
}

func (s *ChannelService) Create(ctx context.Context, userID, serverID uuid.UUID, input CreateChannelInput) (*domain.Channel, error) {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	srv, err := tx.Servers().GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, ErrServerNotFound
	}

	member, err := tx.Servers().GetMember(ctx, serverID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotAMember
	}

	existing, err := tx.Channels().GetByName(ctx, serverID, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrChannelNameTaken
	}

	ch := &domain.Channel{
		ID:        uuid.New(),
		ServerID:  serverID,
		Name:      input.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Channels().Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing channel create: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ChannelAdded(ch)
	}
	return ch, nil
}

func (s *ChannelService) ListByServer(ctx context.Context, userID, serverID uuid.UUID) ([]domain.Channel, error) {
	member, err := s.serverRepo.GetMember(ctx, serverID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotAMember
	}
	return s.channelRepo.ListByServer(ctx, serverID)
}

func (s *ChannelService) Rename(ctx context.Context, userID, channelID uuid.UUID, name string) (*domain.Channel, error) {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ch, err := tx.Channels().GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	if err := s.requireModerator(ctx, tx, ch.ServerID, userID); err != nil {
		return nil, err
	}

	if name != ch.Name {
		existing, err := tx.Channels().GetByName(ctx, ch.ServerID, name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrChannelNameTaken
		}
	}

	ch.Name = name
	if err := tx.Channels().Update(ctx, ch); err != nil {
		return nil, fmt.Errorf("renaming channel: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing channel rename: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ChannelUpdated(ch)
	}
	return ch, nil
}

func (s *ChannelService) Remove(ctx context.Context, userID, channelID uuid.UUID) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ch, err := tx.Channels().GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return ErrChannelNotFound
	}

	if err := s.requireModerator(ctx, tx, ch.ServerID, userID); err != nil {
		return err
	}

	// Collect files before the rows cascade away.
	storedNames, err := tx.Attachments().ListStoredNamesByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if err := tx.Channels().Delete(ctx, channelID); err != nil {
		return fmt.Errorf("deleting channel: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing channel delete: %w", err)
	}

	for _, name := range storedNames {
		s.files.Delete(ctx, name) // best effort
	}
	if s.notifier != nil {
		s.notifier.ChannelRemoved(ch.ServerID, channelID)
	}
	return nil
}

// requireModerator passes only for the server owner or an admin.
func (s *ChannelService) requireModerator(ctx context.Context, tx repository.Tx, serverID, userID uuid.UUID) error {
	member, err := tx.Servers().GetMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotAMember
	}
	if member.Role != domain.RoleOwner && member.Role != domain.RoleAdmin {
		return ErrNotAuthorized
	}
	return nil
}
