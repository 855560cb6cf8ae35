package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/repository"
)

// FileService is the attachment retrieval boundary. It hands out raw bytes
// only when the caller may see the owning aggregate, and answers every other
// case with the same authorization failure so a caller can never distinguish
// "exists but not yours" from "does not exist".
type FileService struct {
	attachmentRepo repository.AttachmentRepository
	serverRepo     repository.ServerRepository
	userRepo       repository.UserRepository
	files          FileStore
}

func NewFileService(
	attachmentRepo repository.AttachmentRepository,
	serverRepo repository.ServerRepository,
	userRepo repository.UserRepository,
	files FileStore,
) *FileService {
	return &FileService{
		attachmentRepo: attachmentRepo,
		serverRepo:     serverRepo,
		userRepo:       userRepo,
		files:          files,
	}
}

func (s *FileService) Get(ctx context.Context, callerID uuid.UUID, storedName string) ([]byte, error) {
	ok, err := s.authorize(ctx, callerID, storedName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFileAccessDenied
	}

	data, err := s.files.GetByName(ctx, storedName)
	if err != nil || data == nil {
		// A dangling reference reads the same as a forbidden one.
		return nil, ErrFileAccessDenied
	}
	return data, nil
}

func (s *FileService) authorize(ctx context.Context, callerID uuid.UUID, storedName string) (bool, error) {
	// Message attachment: caller must be a member of the owning server.
	serverID, err := s.attachmentRepo.ServerForStoredName(ctx, storedName)
	if err != nil {
		return false, err
	}
	if serverID != nil {
		member, err := s.serverRepo.GetMember(ctx, *serverID, callerID)
		if err != nil {
			return false, err
		}
		return member != nil, nil
	}

	// The caller's own avatar.
	owner, err := s.userRepo.GetByAvatar(ctx, storedName)
	if err != nil {
		return false, err
	}
	if owner != nil {
		return owner.ID == callerID, nil
	}

	// A server icon, visible to that server's members.
	servers, err := s.serverRepo.ListByUser(ctx, callerID)
	if err != nil {
		return false, err
	}
	for _, srv := range servers {
		if srv.Icon != nil && *srv.Icon == storedName {
			return true, nil
		}
	}
	return false, nil
}
