package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mlukic/agora/internal/apperr"
	"github.com/mlukic/agora/internal/domain"
)

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Avatar, user.CreatedAt,
	)
	if isDuplicate(err) {
		return apperr.Validation(apperr.CodeDuplicateUsername, "username already taken")
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, username, password_hash, avatar, created_at FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, password_hash, avatar, created_at FROM users WHERE username = $1`
	return r.scanUser(ctx, query, username)
}

func (r *UserRepo) GetByAvatar(ctx context.Context, storedName string) (*domain.User, error) {
	query := `SELECT id, username, password_hash, avatar, created_at FROM users WHERE avatar = $1`
	return r.scanUser(ctx, query, storedName)
}

func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET username = $1, avatar = $2 WHERE id = $3`
	_, err := r.db.Exec(ctx, query, user.Username, user.Avatar, user.ID)
	if isDuplicate(err) {
		return apperr.Validation(apperr.CodeDuplicateUsername, "username already taken")
	}
	return err
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Avatar, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
