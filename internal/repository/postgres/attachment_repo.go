package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mlukic/agora/internal/domain"
)

type AttachmentRepo struct {
	db DB
}

func NewAttachmentRepo(db DB) *AttachmentRepo {
	return &AttachmentRepo{db: db}
}

func (r *AttachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	query := `
		INSERT INTO attachments (id, message_id, display_name, stored_name, preview_name,
			size, kind, width, height, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		att.ID, att.MessageID, att.DisplayName, att.StoredName, att.PreviewName,
		att.Size, att.Kind, att.Width, att.Height, att.UploadedAt,
	)
	return err
}

func (r *AttachmentRepo) GetByStoredName(ctx context.Context, storedName string) (*domain.Attachment, error) {
	query := `
		SELECT id, message_id, display_name, stored_name, preview_name,
			size, kind, width, height, uploaded_at
		FROM attachments
		WHERE stored_name = $1 OR preview_name = $1`

	var att domain.Attachment
	err := r.db.QueryRow(ctx, query, storedName).Scan(
		&att.ID, &att.MessageID, &att.DisplayName, &att.StoredName, &att.PreviewName,
		&att.Size, &att.Kind, &att.Width, &att.Height, &att.UploadedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *AttachmentRepo) ServerForStoredName(ctx context.Context, storedName string) (*uuid.UUID, error) {
	query := `
		SELECT c.server_id
		FROM attachments a
		JOIN messages m ON a.message_id = m.id
		JOIN channels c ON m.channel_id = c.id
		WHERE a.stored_name = $1 OR a.preview_name = $1`

	var serverID uuid.UUID
	err := r.db.QueryRow(ctx, query, storedName).Scan(&serverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &serverID, nil
}

func (r *AttachmentRepo) ListStoredNamesByServer(ctx context.Context, serverID uuid.UUID) ([]string, error) {
	query := `
		SELECT a.stored_name, a.preview_name
		FROM attachments a
		JOIN messages m ON a.message_id = m.id
		JOIN channels c ON m.channel_id = c.id
		WHERE c.server_id = $1`
	return r.listNames(ctx, query, serverID)
}

func (r *AttachmentRepo) ListStoredNamesByChannel(ctx context.Context, channelID uuid.UUID) ([]string, error) {
	query := `
		SELECT a.stored_name, a.preview_name
		FROM attachments a
		JOIN messages m ON a.message_id = m.id
		WHERE m.channel_id = $1`
	return r.listNames(ctx, query, channelID)
}

func (r *AttachmentRepo) ListStoredNamesByMessage(ctx context.Context, messageID uuid.UUID) ([]string, error) {
	query := `SELECT stored_name, preview_name FROM attachments WHERE message_id = $1`
	return r.listNames(ctx, query, messageID)
}

func (r *AttachmentRepo) listNames(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var stored string
		var preview *string
		if err := rows.Scan(&stored, &preview); err != nil {
			return nil, err
		}
		names = append(names, stored)
		if preview != nil {
			names = append(names, *preview)
		}
	}
	return names, rows.Err()
}
