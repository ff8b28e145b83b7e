package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/epin/field"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Vss110Repository implements recorddb.Vss110Repository for SQL backends.
type Vss110Repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewVss110Repository(db *sql.DB) *Vss110Repository {
	return &Vss110Repository{db: db}
}

func NewVss110RepositoryWithTx(tx *sql.Tx) *Vss110Repository {
	return &Vss110Repository{tx: tx}
}

func (r *Vss110Repository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const vss110Columns = `id, job_id, raw_line, line_number, is_valid, validation_errors,
	transaction_code, qualifier, component_seq, destination_id, source_id,
	reporting_sre_id, rollup_sre_id, funds_transfer_sre_id, settlement_service,
	currency_code, no_data_indicator, report_group, report_subgroup,
	report_id_number, report_id_suffix,
	settlement_date, settlement_date_raw, report_date, report_date_raw,
	from_date, from_date_raw, to_date, to_date_raw,
	funds_transfer_date, funds_transfer_date_raw, reimbursement_attr,
	amount_type, business_mode, transaction_count,
	credit_amount, debit_amount, net_amount, amount_sign,
	created_at, updated_at, version`

func (r *Vss110Repository) Insert(ctx context.Context, rec *epin.Vss110Record) error {
	query := `INSERT INTO vss110_records (` + vss110Columns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34,
		$35, $36, $37, $38, $39, $40, $41, $42)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		rec.ID.String(), rec.JobID.String(), rec.RawLine, rec.LineNumber,
		rec.IsValid, joinErrors(rec.ValidationErrors),
		rec.TransactionCode, rec.Qualifier, rec.ComponentSeq, rec.DestinationID, rec.SourceID,
		rec.ReportingSreID, rec.RollupSreID, rec.FundsTransferSreID, rec.SettlementService,
		rec.CurrencyCode, rec.NoDataIndicator, rec.ReportGroup, rec.ReportSubgroup,
		rec.ReportIDNumber, rec.ReportIDSuffix,
		nullTime(rec.SettlementDate), rec.SettlementDateRaw, nullTime(rec.ReportDate), rec.ReportDateRaw,
		nullTime(rec.FromDate), rec.FromDateRaw, nullTime(rec.ToDate), rec.ToDateRaw,
		nullTime(rec.FundsTransferDate), rec.FundsTransferDateRaw, rec.ReimbursementAttr,
		rec.AmountType, rec.BusinessMode, rec.TransactionCount,
		decStr(rec.CreditAmount), decStr(rec.DebitAmount), decStr(rec.NetAmount), string(rec.AmountSign),
		rec.CreatedAt, rec.UpdatedAt, rec.Version)

	if err != nil {
		return recorddb.NewQueryError("insert_vss110", "failed to insert VSS-110 record", err)
	}
	return nil
}

func scanVss110(scan func(dest ...interface{}) error) (*epin.Vss110Record, error) {
	var (
		rec                                    epin.Vss110Record
		id, jobID, errText, sign               string
		settlement, report, from, to, transfer sql.NullTime
		credit, debit, net                     string
	)

	err := scan(&id, &jobID, &rec.RawLine, &rec.LineNumber, &rec.IsValid, &errText,
		&rec.TransactionCode, &rec.Qualifier, &rec.ComponentSeq, &rec.DestinationID, &rec.SourceID,
		&rec.ReportingSreID, &rec.RollupSreID, &rec.FundsTransferSreID, &rec.SettlementService,
		&rec.CurrencyCode, &rec.NoDataIndicator, &rec.ReportGroup, &rec.ReportSubgroup,
		&rec.ReportIDNumber, &rec.ReportIDSuffix,
		&settlement, &rec.SettlementDateRaw, &report, &rec.ReportDateRaw,
		&from, &rec.FromDateRaw, &to, &rec.ToDateRaw,
		&transfer, &rec.FundsTransferDateRaw, &rec.ReimbursementAttr,
		&rec.AmountType, &rec.BusinessMode, &rec.TransactionCount,
		&credit, &debit, &net, &sign,
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
	rec.SettlementDate = timePtr(settlement)
	rec.ReportDate = timePtr(report)
	rec.FromDate = timePtr(from)
	rec.ToDate = timePtr(to)
	rec.FundsTransferDate = timePtr(transfer)
	rec.CreditAmount = parseDec(credit)
	rec.DebitAmount = parseDec(debit)
	rec.NetAmount = parseDec(net)
	rec.AmountSign = field.Sign(sign)
	return &rec, nil
}

func (r *Vss110Repository) queryRecords(ctx context.Context, operation, query string, args ...interface{}) ([]*epin.Vss110Record, error) {
	rows, err := r.getExecutor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, recorddb.NewQueryError(operation, "failed to query VSS-110 records", err)
	}
	defer rows.Close()

	var records []*epin.Vss110Record
	for rows.Next() {
		rec, err := scanVss110(rows.Scan)
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

func (r *Vss110Repository) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.Vss110Record, error) {
	query := `SELECT ` + vss110Columns + ` FROM vss110_records WHERE job_id = $1 ORDER BY line_number ASC`
	return r.queryRecords(ctx, "find_vss110_by_job", query, jobID.String())
}

func (r *Vss110Repository) FindByFilter(ctx context.Context, f recorddb.Filter) ([]*epin.Vss110Record, error) {
	query := `SELECT ` + vss110Columns + ` FROM vss110_records WHERE 1=1`
	var args []interface{}

	query, args = appendFilter(query, args, f, "settlement_date", "currency_code", "business_mode")
	query += " ORDER BY destination_id ASC, line_number ASC"

	return r.queryRecords(ctx, "find_vss110_by_filter", query, args...)
}

func (r *Vss110Repository) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.getExecutor().ExecContext(ctx,
		`DELETE FROM vss110_records WHERE job_id = $1`, jobID.String())
	if err != nil {
		return recorddb.NewQueryError("delete_vss110_by_job", "failed to delete VSS-110 records", err)
	}
	return nil
}

// appendFilter extends a query with the optional report-filter predicates.
func appendFilter(query string, args []interface{}, f recorddb.Filter, dateCol, currencyCol, modeCol string) (string, []interface{}) {
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		query += fmt.Sprintf(" AND %s >= $%d", dateCol, len(args))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		query += fmt.Sprintf(" AND %s <= $%d", dateCol, len(args))
	}
	if f.CurrencyCode != "" {
		args = append(args, f.CurrencyCode)
		query += fmt.Sprintf(" AND %s = $%d", currencyCol, len(args))
	}
	if f.DestinationPrefix != "" {
		args = append(args, f.DestinationPrefix+"%")
		query += fmt.Sprintf(" AND destination_id LIKE $%d", len(args))
	}
	if f.BusinessMode != "" {
		args = append(args, f.BusinessMode)
		query += fmt.Sprintf(" AND %s = $%d", modeCol, len(args))
	}
	return query, args
}
