package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mlukic/agora/internal/apperr"
	"github.com/mlukic/agora/internal/domain"
)

type ServerRepo struct {
	db DB
}

func NewServerRepo(db DB) *ServerRepo {
	return &ServerRepo{db: db}
}

func (r *ServerRepo) Create(ctx context.Context, srv *domain.Server) error {
	query := `
		INSERT INTO servers (id, name, description, owner_id, icon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		srv.ID, srv.Name, srv.Description, srv.OwnerID, srv.Icon, srv.CreatedAt,
	)
	if isDuplicate(err) {
		return apperr.Validation(apperr.CodeDuplicateServerName, "server name already taken")
	}
	return err
}

func (r *ServerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Server, error) {
	query := `SELECT id, name, description, owner_id, icon, created_at FROM servers WHERE id = $1`
	return r.scanServer(ctx, query, id)
}

func (r *ServerRepo) GetByName(ctx context.Context, name string) (*domain.Server, error) {
	query := `SELECT id, name, description, owner_id, icon, created_at FROM servers WHERE name = $1`
	return r.scanServer(ctx, query, name)
}

func (r *ServerRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Server, error) {
	query := `
		SELECT s.id, s.name, s.description, s.owner_id, s.icon, s.created_at
		FROM servers s
		INNER JOIN server_members sm ON s.id = sm.server_id
		WHERE sm.user_id = $1
		ORDER BY s.created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []domain.Server
	for rows.Next() {
		var s domain.Server
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.OwnerID, &s.Icon, &s.CreatedAt); err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

func (r *ServerRepo) Update(ctx context.Context, srv *domain.Server) error {
	query := `UPDATE servers SET name = $1, description = $2, icon = $3 WHERE id = $4`
	_, err := r.db.Exec(ctx, query, srv.Name, srv.Description, srv.Icon, srv.ID)
	if isDuplicate(err) {
		return apperr.Validation(apperr.CodeDuplicateServerName, "server name already taken")
	}
	return err
}

func (r *ServerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Channels, messages and attachment rows go with it via ON DELETE CASCADE.
	_, err := r.db.Exec(ctx, `DELETE FROM servers WHERE id = $1`, id)
	return err
}

func (r *ServerRepo) AddMember(ctx context.Context, m *domain.ServerMember) error {
	query := `
		INSERT INTO server_members (server_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, m.ServerID, m.UserID, m.Role, m.JoinedAt)
	return err
}

func (r *ServerRepo) RemoveMember(ctx context.Context, serverID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM server_members WHERE server_id = $1 AND user_id = $2`, serverID, userID)
	return err
}

func (r *ServerRepo) GetMember(ctx context.Context, serverID, userID uuid.UUID) (*domain.ServerMember, error) {
	query := `SELECT server_id, user_id, role, joined_at FROM server_members WHERE server_id = $1 AND user_id = $2`
	var m domain.ServerMember
	err := r.db.QueryRow(ctx, query, serverID, userID).Scan(&m.ServerID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ServerRepo) ListMembers(ctx context.Context, serverID uuid.UUID) ([]domain.ServerMember, error) {
	query := `
		SELECT sm.server_id, sm.user_id, sm.role, sm.joined_at, u.username, u.avatar
		FROM server_members sm
		JOIN users u ON sm.user_id = u.id
		WHERE sm.server_id = $1
		ORDER BY sm.joined_at`

	rows, err := r.db.Query(ctx, query, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.ServerMember
	for rows.Next() {
		var m domain.ServerMember
		if err := rows.Scan(&m.ServerID, &m.UserID, &m.Role, &m.JoinedAt, &m.Username, &m.Avatar); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *ServerRepo) SetMemberRole(ctx context.Context, serverID, userID uuid.UUID, role string) error {
	query := `UPDATE server_members SET role = $1 WHERE server_id = $2 AND user_id = $3`
	_, err := r.db.Exec(ctx, query, role, serverID, userID)
	return err
}

func (r *ServerRepo) scanServer(ctx context.Context, query string, arg any) (*domain.Server, error) {
	var s domain.Server
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.Name, &s.Description, &s.OwnerID, &s.Icon, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
