package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/repository"
)

type UserService struct {
	uow      repository.UnitOfWork
	userRepo repository.UserRepository
	files    FileStore
	images   *AttachmentPipeline
	notifier Notifier
}

func NewUserService(uow repository.UnitOfWork, userRepo repository.UserRepository, files FileStore, images *AttachmentPipeline) *UserService {
	return &UserService{
		uow:      uow,
		userRepo: userRepo,
		files:    files,
		images:   images,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *UserService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*domain.User, error) {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	existing, err := tx.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != userID {
		return nil, ErrUsernameTaken
	}

	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.Username = username
	if err := tx.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating username: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing username update: %w", err)
	}

	if s.notifier != nil {
		s.notifier.UsernameChanged(user)
	}
	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, upload Upload) (*domain.User, error) {
	storedName, err := s.images.ProcessImage(ctx, upload)
	if err != nil {
		return nil, err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	oldAvatar := user.Avatar
	user.Avatar = &storedName
	if err := tx.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating avatar: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing avatar update: %w", err)
	}

	if oldAvatar != nil && *oldAvatar != storedName {
		s.files.Delete(ctx, *oldAvatar) // best effort
	}
	if s.notifier != nil {
		s.notifier.AvatarChanged(user)
	}
	return user, nil
}
