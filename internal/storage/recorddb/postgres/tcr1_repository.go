package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/epin/field"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Tcr1Repository implements recorddb.Tcr1Repository for SQL backends.
type Tcr1Repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewTcr1Repository(db *sql.DB) *Tcr1Repository {
	return &Tcr1Repository{db: db}
}

func NewTcr1RepositoryWithTx(tx *sql.Tx) *Tcr1Repository {
	return &Tcr1Repository{tx: tx}
}

func (r *Tcr1Repository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const tcr1Columns = `id, job_id, raw_line, line_number, is_valid, validation_errors,
	transaction_code, qualifier, component_seq, rate_table_id,
	first_count, second_count,
	first_amount, first_amount_sign, second_amount, second_amount_sign,
	third_amount, third_amount_sign, fourth_amount, fourth_amount_sign,
	fifth_amount, fifth_amount_sign, sixth_amount, sixth_amount_sign,
	destination_id, parent_id, parent_report_number,
	created_at, updated_at, version`

func (r *Tcr1Repository) Insert(ctx context.Context, rec *epin.Tcr1Record) error {
	query := `INSERT INTO tcr1_records (` + tcr1Columns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		rec.ID.String(), rec.JobID.String(), rec.RawLine, rec.LineNumber,
		rec.IsValid, joinErrors(rec.ValidationErrors),
		rec.TransactionCode, rec.Qualifier, rec.ComponentSeq, rec.RateTableID,
		rec.FirstCount, rec.SecondCount,
		decStr(rec.FirstAmount), string(rec.FirstAmountSign),
		decStr(rec.SecondAmount), string(rec.SecondAmountSign),
		decStr(rec.ThirdAmount), string(rec.ThirdAmountSign),
		decStr(rec.FourthAmount), string(rec.FourthAmountSign),
		decStr(rec.FifthAmount), string(rec.FifthAmountSign),
		decStr(rec.SixthAmount), string(rec.SixthAmountSign),
		rec.DestinationID, nullUUID(rec.ParentID), rec.ParentReportNumber,
		rec.CreatedAt, rec.UpdatedAt, rec.Version)

	if err != nil {
		return recorddb.NewQueryError("insert_tcr1", "failed to insert TCR1 record", err)
	}
	return nil
}

func scanTcr1(scan func(dest ...interface{}) error) (*epin.Tcr1Record, error) {
	var (
		rec                                epin.Tcr1Record
		id, jobID, errText                 string
		parent                             sql.NullString
		a1, a2, a3, a4, a5, a6             string
		s1, s2, s3, s4, s5, s6             string
	)

	err := scan(&id, &jobID, &rec.RawLine, &rec.LineNumber, &rec.IsValid, &errText,
		&rec.TransactionCode, &rec.Qualifier, &rec.ComponentSeq, &rec.RateTableID,
		&rec.FirstCount, &rec.SecondCount,
		&a1, &s1, &a2, &s2, &a3, &s3, &a4, &s4, &a5, &s5, &a6, &s6,
		&rec.DestinationID, &parent, &rec.ParentReportNumber,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.Version)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if rec.JobID, err = uuid.Parse(jobID); err != nil {
		return nil, err
	}
	rec.ValidationErrors = splitErrors(errText)
	rec.ParentID = uuidPtr(parent)
	rec.FirstAmount, rec.FirstAmountSign = parseDec(a1), field.Sign(s1)
	rec.SecondAmount, rec.SecondAmountSign = parseDec(a2), field.Sign(s2)
	rec.ThirdAmount, rec.ThirdAmountSign = parseDec(a3), field.Sign(s3)
	rec.FourthAmount, rec.FourthAmountSign = parseDec(a4), field.Sign(s4)
	rec.FifthAmount, rec.FifthAmountSign = parseDec(a5), field.Sign(s5)
	rec.SixthAmount, rec.SixthAmountSign = parseDec(a6), field.Sign(s6)
	return &rec, nil
}

func (r *Tcr1Repository) queryRecords(ctx context.Context, operation, query string, args ...interface{}) ([]*epin.Tcr1Record, error) {
	rows, err := r.getExecutor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, recorddb.NewQueryError(operation, "failed to query TCR1 records", err)
	}
	defer rows.Close()

	var records []*epin.Tcr1Record
	for rows.Next() {
		rec, err := scanTcr1(rows.Scan)
		if err != nil {
			return nil, recorddb.NewQueryError(operation, "failed to scan row", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, recorddb.NewQueryError(operation, "error iterating rows", err)
	}
	return records, nil
}

func (r *Tcr1Repository) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.Tcr1Record, error) {
	query := `SELECT ` + tcr1Columns + ` FROM tcr1_records WHERE job_id = $1 ORDER BY line_number ASC`
	return r.queryRecords(ctx, "find_tcr1_by_job", query, jobID.String())
}

func (r *Tcr1Repository) FindByParent(ctx context.Context, parentID uuid.UUID) ([]*epin.Tcr1Record, error) {
	query := `SELECT ` + tcr1Columns + ` FROM tcr1_records WHERE parent_id = $1 ORDER BY line_number ASC`
	return r.queryRecords(ctx, "find_tcr1_by_parent", query, parentID.String())
}

func (r *Tcr1Repository) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.getExecutor().ExecContext(ctx,
		`DELETE FROM tcr1_records WHERE job_id = $1`, jobID.String())
	if err != nil {
		return recorddb.NewQueryError("delete_tcr1_by_job", "failed to delete TCR1 records", err)
	}
	return nil
}
