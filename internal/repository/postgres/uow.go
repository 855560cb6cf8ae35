package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mlukic/agora/internal/repository"
)

type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &pgxTx{tx: tx}, nil
}

// pgxTx binds repositories to one pgx transaction.
type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Users() repository.UserRepository             { return NewUserRepo(t.tx) }
func (t *pgxTx) Servers() repository.ServerRepository         { return NewServerRepo(t.tx) }
func (t *pgxTx) Channels() repository.ChannelRepository       { return NewChannelRepo(t.tx) }
func (t *pgxTx) Messages() repository.MessageRepository       { return NewMessageRepo(t.tx) }
func (t *pgxTx) Attachments() repository.AttachmentRepository { return NewAttachmentRepo(t.tx) }

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
