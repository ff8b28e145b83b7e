package postgres

import (
	"context"
	"database/sql"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// TransactionContext binds the repositories to one open transaction.
type TransactionContext struct {
	tx *sql.Tx

	jobRepo    *JobRepository
	headerRepo *HeaderRepository
	vss110Repo *Vss110Repository
	sub4Repo   *SubGroup4Repository
	tcr1Repo   *Tcr1Repository
}

func NewTransactionContext(tx *sql.Tx) *TransactionContext {
	return &TransactionContext{
		tx:         tx,
		jobRepo:    NewJobRepositoryWithTx(tx),
		headerRepo: NewHeaderRepositoryWithTx(tx),
		vss110Repo: NewVss110RepositoryWithTx(tx),
		sub4Repo:   NewSubGroup4RepositoryWithTx(tx),
		tcr1Repo:   NewTcr1RepositoryWithTx(tx),
	}
}

func (tc *TransactionContext) Commit(ctx context.Context) error {
	if tc.tx == nil {
		return recorddb.ErrTransactionClosed
	}

	err := tc.tx.Commit()
	tc.tx = nil

	if err != nil {
		return recorddb.NewTransactionError("commit", "failed to commit transaction", err)
	}
	return nil
}

func (tc *TransactionContext) Rollback(ctx context.Context) error {
	if tc.tx == nil {
		return nil // Already rolled back or committed
	}

	err := tc.tx.Rollback()
	tc.tx = nil

	if err != nil {
		return recorddb.NewTransactionError("rollback", "failed to rollback transaction", err)
	}
	return nil
}

func (tc *TransactionContext) Jobs() recorddb.JobRepository            { return tc.jobRepo }
func (tc *TransactionContext) Headers() recorddb.HeaderRepository      { return tc.headerRepo }
func (tc *TransactionContext) Vss110() recorddb.Vss110Repository       { return tc.vss110Repo }
func (tc *TransactionContext) SubGroup4() recorddb.SubGroup4Repository { return tc.sub4Repo }
func (tc *TransactionContext) Tcr1() recorddb.Tcr1Repository           { return tc.tcr1Repo }
