package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mlukic/agora/internal/apperr"
	"github.com/mlukic/agora/internal/domain"
)

type ChannelRepo struct {
	db DB
}

func NewChannelRepo(db DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

func (r *ChannelRepo) Create(ctx context.Context, ch *domain.Channel) error {
	query := `
		INSERT INTO channels (id, server_id, name, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, ch.ID, ch.ServerID, ch.Name, ch.CreatedAt)
	if isDuplicate(err) {
		return apperr.Validation(apperr.CodeDuplicateChannelName, "channel name already exists in this server")
	}
	return err
}

func (r *ChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	query := `SELECT id, server_id, name, created_at FROM channels WHERE id = $1`
	var ch domain.Channel
	err := r.db.QueryRow(ctx, query, id).Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *ChannelRepo) GetByName(ctx context.Context, serverID uuid.UUID, name string) (*domain.Channel, error) {
	query := `SELECT id, server_id, name, created_at FROM channels WHERE server_id = $1 AND name = $2`
	var ch domain.Channel
	err := r.db.QueryRow(ctx, query, serverID, name).Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *ChannelRepo) ListByServer(ctx context.Context, serverID uuid.UUID) ([]domain.Channel, error) {
	query := `SELECT id, server_id, name, created_at FROM channels WHERE server_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *ChannelRepo) Update(ctx context.Context, ch *domain.Channel) error {
	query := `UPDATE channels SET name = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, ch.Name, ch.ID)
	if isDuplicate(err) {
		return apperr.Validation(apperr.CodeDuplicateChannelName, "channel name already exists in this server")
	}
	return err
}

func (r *ChannelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	return err
}
