package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mlukic/agora/internal/domain"
)

type MessageRepo struct {
	db DB
}

func NewMessageRepo(db DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `
	m.id, m.channel_id, m.sender_id, m.text, m.sent_at, m.is_edited, u.username,
	a.id, a.message_id, a.display_name, a.stored_name, a.preview_name,
	a.size, a.kind, a.width, a.height, a.uploaded_at`

const messageJoins = `
	FROM messages m
	JOIN users u ON m.sender_id = u.id
	LEFT JOIN attachments a ON a.message_id = m.id`

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, sender_id, text, sent_at, is_edited)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.ChannelID, msg.SenderID, msg.Text, msg.SentAt, msg.IsEdited,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT` + messageColumns + messageJoins + ` WHERE m.id = $1`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *MessageRepo) ListByChannel(ctx context.Context, channelID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if before != nil {
		query = `SELECT` + messageColumns + messageJoins + `
			WHERE m.channel_id = $1
				AND m.sent_at < (SELECT sent_at FROM messages WHERE id = $2)
			ORDER BY m.sent_at DESC
			LIMIT $3`
		args = []any{channelID, *before, limit}
	} else {
		query = `SELECT` + messageColumns + messageJoins + `
			WHERE m.channel_id = $1
			ORDER BY m.sent_at DESC
			LIMIT $2`
		args = []any{channelID, limit}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query returns newest first; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	query := `UPDATE messages SET text = $1, is_edited = $2 WHERE id = $3`
	_, err := r.db.Exec(ctx, query, msg.Text, msg.IsEdited, msg.ID)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// The attachment row cascades.
	_, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	var attID, attMsgID *uuid.UUID
	var attDisplay, attStored, attPreview, attKind *string
	var attSize *int64
	var attWidth, attHeight *int
	var attUploaded *time.Time

	err := row.Scan(
		&msg.ID, &msg.ChannelID, &msg.SenderID, &msg.Text, &msg.SentAt,
		&msg.IsEdited, &msg.SenderUsername,
		&attID, &attMsgID, &attDisplay, &attStored, &attPreview,
		&attSize, &attKind, &attWidth, &attHeight, &attUploaded,
	)
	if err != nil {
		return nil, err
	}

	if attID != nil {
		msg.Attachment = &domain.Attachment{
			ID:          *attID,
			MessageID:   attMsgID,
			DisplayName: *attDisplay,
			StoredName:  *attStored,
			PreviewName: attPreview,
			Size:        *attSize,
			Kind:        *attKind,
			Width:       attWidth,
			Height:      attHeight,
			UploadedAt:  *attUploaded,
		}
	}
	return &msg, nil
}
