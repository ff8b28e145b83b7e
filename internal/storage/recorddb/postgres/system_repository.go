package postgres

import (
	"context"
	"database/sql"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// SystemRepository implements connection-level operations.
type SystemRepository struct {
	db *sql.DB
}

func NewSystemRepository(db *sql.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

func (r *SystemRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return recorddb.ErrDatabaseClosed
	}
	if err := r.db.PingContext(ctx); err != nil {
		return recorddb.NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

func (r *SystemRepository) Begin(ctx context.Context) (recorddb.TransactionContext, error) {
	if r.db == nil {
		return nil, recorddb.ErrDatabaseClosed
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, recorddb.NewTransactionError("begin", "failed to begin transaction", err)
	}
	return NewTransactionContext(tx), nil
}
