package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Builder-Lawyers/site-provisioner/pkg/interfaces"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ interfaces.UoW = (*UOW)(nil)

type UOW struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (u *UOW) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("can't begin tx, %w", err)
	}
	u.tx = tx
	return u.tx, nil
}

func (u *UOW) GetTx() pgx.Tx {
	return u.tx
}

func (u *UOW) Commit(ctx context.Context) error {
	if u.tx == nil {
		return fmt.Errorf("transaction is not started yet")
	}
	return u.tx.Commit(ctx)
}

func (u *UOW) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return fmt.Errorf("transaction is not started yet")
	}
	return u.tx.Rollback(ctx)
}

// Finalize commits when *errp is nil and rolls back otherwise. Meant to be deferred.
func (u *UOW) Finalize(ctx context.Context, errp *error) {
	if u.tx == nil {
		return
	}
	if *errp != nil {
		if rbErr := u.tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			*errp = errors.Join(*errp, rbErr)
		}
		return
	}
	if err := u.tx.Commit(ctx); err != nil {
		*errp = fmt.Errorf("commit failed, %w", err)
	}
}

type UOWFactory struct {
	Pool *pgxpool.Pool
}

func (u *UOWFactory) GetUoW() *UOW {
	return &UOW{pool: u.Pool}
}

func NewUoWFactory(pool *pgxpool.Pool) *UOWFactory {
	return &UOWFactory{Pool: pool}
}
