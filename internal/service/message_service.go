package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/domain"
	"github.com/mlukic/agora/internal/repository"
)

const maxMessageLen = 2000

type MessageService struct {
	uow         repository.UnitOfWork
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
	attachments *AttachmentPipeline
	notifier    Notifier
}

func NewMessageService(
	uow repository.UnitOfWork,
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
	attachments *AttachmentPipeline,
) *MessageService {
	return &MessageService{
		uow:         uow,
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		serverRepo:  serverRepo,
		attachments: attachments,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	Text   string
	Upload *Upload
}

type MessageListResponse struct {
	Messages []domain.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

func (s *MessageService) Send(ctx context.Context, userID, channelID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	if input.Text == "" && input.Upload == nil {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(input.Text) > maxMessageLen {
		return nil, ErrMessageTooLong
	}

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

	member, err := tx.Servers().GetMember(ctx, ch.ServerID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotAMember
	}

	msg := &domain.Message{
		ID:        uuid.New(),
		ChannelID: channelID,
		SenderID:  userID,
		Text:      input.Text,
		SentAt:    time.Now().UTC(),
	}

	var att *domain.Attachment
	if input.Upload != nil {
		att, err = s.attachments.Process(ctx, *input.Upload)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Messages().Create(ctx, msg); err != nil {
		if att != nil {
			s.attachments.Discard(ctx, att)
		}
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if att != nil {
		// The attachment row lands in the same transaction as its message;
		// one never exists without the other.
		att.MessageID = &msg.ID
		if err := tx.Attachments().Create(ctx, att); err != nil {
			s.attachments.Discard(ctx, att)
			return nil, fmt.Errorf("creating attachment: %w", err)
		}
		msg.Attachment = att
	}

	if err := tx.Commit(ctx); err != nil {
		if att != nil {
			s.attachments.Discard(ctx, att)
		}
		return nil, fmt.Errorf("committing message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.MessageAdded(ch.ServerID, msg)
	}
	return msg, nil
}

func (s *MessageService) List(ctx context.Context, userID, channelID uuid.UUID, before *uuid.UUID, limit int) (*MessageListResponse, error) {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	member, err := s.serverRepo.GetMember(ctx, ch.ServerID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotAMember
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	// Fetch one extra row to learn whether more remain.
	messages, err := s.messageRepo.ListByChannel(ctx, channelID, before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[len(messages)-limit:]
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return &MessageListResponse{Messages: messages, HasMore: hasMore}, nil
}

func (s *MessageService) Edit(ctx context.Context, userID, messageID uuid.UUID, text string) (*domain.Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxMessageLen {
		return nil, ErrMessageTooLong
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	msg, err := tx.Messages().GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return nil, ErrNotAuthorized
	}

	ch, err := tx.Channels().GetByID(ctx, msg.ChannelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	msg.Text = text
	msg.IsEdited = true
	if err := tx.Messages().Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing message edit: %w", err)
	}

	if s.notifier != nil {
		s.notifier.MessageEdited(ch.ServerID, msg)
	}
	return msg, nil
}

// Remove deletes a message. The author may always remove their own; the
// server owner and admins may remove anyone's.
func (s *MessageService) Remove(ctx context.Context, userID, messageID uuid.UUID) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	msg, err := tx.Messages().GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	ch, err := tx.Channels().GetByID(ctx, msg.ChannelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return ErrChannelNotFound
	}

	if msg.SenderID != userID {
		member, err := tx.Servers().GetMember(ctx, ch.ServerID, userID)
		if err != nil {
			return err
		}
		if member == nil || (member.Role != domain.RoleOwner && member.Role != domain.RoleAdmin) {
			return ErrNotAuthorized
		}
	}

	storedNames, err := tx.Attachments().ListStoredNamesByMessage(ctx, messageID)
	if err != nil {
		return err
	}

	if err := tx.Messages().Delete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing message delete: %w", err)
	}

	for _, name := range storedNames {
		s.attachments.files.Delete(ctx, name) // best effort
	}
	if s.notifier != nil {
		s.notifier.MessageRemoved(ch.ServerID, msg.ChannelID, messageID)
	}
	return nil
}
