package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/repository"
)

type ServerService struct {
	uow        repository.UnitOfWork
	serverRepo repository.ServerRepository
	files      FileStore
	images     *AttachmentPipeline
	notifier   Notifier
	registry   ConnectionRegistry
}

func NewServerService(uow repository.UnitOfWork, serverRepo repository.ServerRepository, files FileStore, images *AttachmentPipeline) *ServerService {
	return &ServerService{
		uow:        uow,
		serverRepo: serverRepo,
		files:      files,
		images:     images,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ServerService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetRegistry sets the live-connection registry (optional dependency).
func (s *ServerService) SetRegistry(r ConnectionRegistry) {
	s.registry = r
}

type CreateServerInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateServerInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *ServerService) Create(ctx context.Context, ownerID uuid.UUID, input CreateServerInput) (*domain.Server, error) {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	existing, err := tx.Servers().GetByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrServerNameTaken
	}

	var desc *string
	if input.Description != "" {
		desc = &input.Description
	}

	now := time.Now().UTC()
	srv := &domain.Server{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: desc,
		OwnerID:     ownerID,
		CreatedAt:   now,
	}
	if err := tx.Servers().Create(ctx, srv); err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	// The owner is always a member.
	member := &domain.ServerMember{
		ServerID: srv.ID,
		UserID:   ownerID,
		Role:     domain.RoleOwner,
		JoinedAt: now,
	}
	if err := tx.Servers().AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("adding owner as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing server create: %w", err)
	}

	return srv, nil
}

func (s *ServerService) GetByID(ctx context.Context, userID, serverID uuid.UUID) (*domain.Server, error) {
	member, err := s.serverRepo.GetMember(ctx, serverID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotAMember
	}

	srv, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, ErrServerNotFound
	}
	return srv, nil
}

func (s *ServerService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Server, error) {
	return s.serverRepo.ListByUser(ctx, userID)
}

func (s *ServerService) ListMembers(ctx context.Context, userID, serverID uuid.UUID) ([]domain.ServerMember, error) {
	member, err := s.serverRepo.GetMember(ctx, serverID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotAMember
	}
	return s.serverRepo.ListMembers(ctx, serverID)
}

func (s *ServerService) Update(ctx context.Context, userID, serverID uuid.UUID, input UpdateServerInput) (*domain.Server, error) {
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
	if srv.OwnerID != userID {
		return nil, ErrNotOwner
	}

	if input.Name != nil && *input.Name != srv.Name {
		existing, err := tx.Servers().GetByName(ctx, *input.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrServerNameTaken
		}
		srv.Name = *input.Name
	}
	if input.Description != nil {
		srv.Description = input.Description
	}

	if err := tx.Servers().Update(ctx, srv); err != nil {
		return nil, fmt.Errorf("updating server: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing server update: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ServerUpdated(srv)
	}
	return srv, nil
}

// UpdateIcon runs the upload through the avatar-class image pipeline and
// swaps the server icon.
func (s *ServerService) UpdateIcon(ctx context.Context, userID, serverID uuid.UUID, upload Upload) (*domain.Server, error) {
	storedName, err := s.images.ProcessImage(ctx, upload)
	if err != nil {
		return nil, err
	}

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
	if srv.OwnerID != userID {
		return nil, ErrNotOwner
	}

	oldIcon := srv.Icon
	srv.Icon = &storedName
	if err := tx.Servers().Update(ctx, srv); err != nil {
		return nil, fmt.Errorf("updating server icon: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing icon update: %w", err)
	}

	if oldIcon != nil && *oldIcon != storedName {
		s.files.Delete(ctx, *oldIcon) // best effort
	}
	if s.notifier != nil {
		s.notifier.ServerUpdated(srv)
	}
	return srv, nil
}

func (s *ServerService) Delete(ctx context.Context, userID, serverID uuid.UUID) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	srv, err := tx.Servers().GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if srv == nil {
		return ErrServerNotFound
	}
	if srv.OwnerID != userID {
		return ErrNotOwner
	}

	// Collect files before the rows cascade away.
	storedNames, err := tx.Attachments().ListStoredNamesByServer(ctx, serverID)
	if err != nil {
		return err
	}
	if srv.Icon != nil {
		storedNames = append(storedNames, *srv.Icon)
	}

	if err := tx.Servers().Delete(ctx, serverID); err != nil {
		return fmt.Errorf("deleting server: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing server delete: %w", err)
	}

	for _, name := range storedNames {
		s.files.Delete(ctx, name) // best effort
	}
	if s.notifier != nil {
		s.notifier.ServerRemoved(serverID)
	}
	return nil
}

func (s *ServerService) Join(ctx context.Context, userID, serverID uuid.UUID) (*domain.ServerMember, error) {
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

	existing, err := tx.Servers().GetMember(ctx, serverID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	member := &domain.ServerMember{
		ServerID: serverID,
		UserID:   userID,
		Role:     domain.RoleMember,
		JoinedAt: time.Now().UTC(),
		Username: user.Username,
		Avatar:   user.Avatar,
	}
	if err := tx.Servers().AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("adding member: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing join: %w", err)
	}

	if s.notifier != nil {
		s.notifier.UserJoined(member)
	}
	return member, nil
}

func (s *ServerService) Leave(ctx context.Context, userID, serverID uuid.UUID) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	srv, err := tx.Servers().GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if srv == nil {
		return ErrServerNotFound
	}
	if srv.OwnerID == userID {
		return ErrUserIsOwner
	}

	member, err := tx.Servers().GetMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotAMember
	}

	if err := tx.Servers().RemoveMember(ctx, serverID, userID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing leave: %w", err)
	}

	// Revoke the server group on every one of the user's connections before
	// reporting success, so no device keeps receiving broadcasts.
	s.revokeGroup(serverID, userID)

	if s.notifier != nil {
		s.notifier.UserLeft(serverID, userID)
	}
	return nil
}

// KickMember removes another user from the server. Owner and admins may kick;
// the owner cannot be kicked.
func (s *ServerService) KickMember(ctx context.Context, requesterID, serverID, userID uuid.UUID) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	srv, err := tx.Servers().GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if srv == nil {
		return ErrServerNotFound
	}
	if srv.OwnerID == userID {
		return ErrUserIsOwner
	}

	requester, err := tx.Servers().GetMember(ctx, serverID, requesterID)
	if err != nil {
		return err
	}
	if requester == nil || (requester.Role != domain.RoleOwner && requester.Role != domain.RoleAdmin) {
		return ErrNotAuthorized
	}

	member, err := tx.Servers().GetMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotAMember
	}

	if err := tx.Servers().RemoveMember(ctx, serverID, userID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing kick: %w", err)
	}

	s.revokeGroup(serverID, userID)

	if s.notifier != nil {
		s.notifier.UserLeft(serverID, userID)
	}
	return nil
}

func (s *ServerService) GrantAdmin(ctx context.Context, requesterID, serverID, userID uuid.UUID) error {
	return s.setRole(ctx, requesterID, serverID, userID, domain.RoleAdmin)
}

func (s *ServerService) RevokeAdmin(ctx context.Context, requesterID, serverID, userID uuid.UUID) error {
	return s.setRole(ctx, requesterID, serverID, userID, domain.RoleMember)
}

func (s *ServerService) setRole(ctx context.Context, requesterID, serverID, userID uuid.UUID, role string) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	srv, err := tx.Servers().GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if srv == nil {
		return ErrServerNotFound
	}
	if srv.OwnerID != requesterID {
		return ErrNotOwner
	}
	if srv.OwnerID == userID {
		return ErrUserIsOwner
	}

	member, err := tx.Servers().GetMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotAMember
	}
	if member.Role == role {
		if role == domain.RoleAdmin {
			return ErrAlreadyAdmin
		}
		return ErrNotAdmin
	}

	if err := tx.Servers().SetMemberRole(ctx, serverID, userID, role); err != nil {
		return fmt.Errorf("setting member role: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing role change: %w", err)
	}
	return nil
}

// AuthorizeGroup is the membership check the transport runs before it lets a
// connection join a server's fan-out group.
func (s *ServerService) AuthorizeGroup(ctx context.Context, serverID, userID uuid.UUID) error {
	member, err := s.serverRepo.GetMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotAMember
	}
	return nil
}

func (s *ServerService) revokeGroup(serverID, userID uuid.UUID) {
	if s.registry == nil {
		return
	}
	group := domain.ServerGroup(serverID)
	for _, connID := range s.registry.ConnectionsForUser(userID) {
		s.registry.LeaveGroup(connID, group)
	}
}
