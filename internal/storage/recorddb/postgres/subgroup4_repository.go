package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// SubGroup4Repository implements recorddb.SubGroup4Repository for SQL
// backends.
type SubGroup4Repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewSubGroup4Repository(db *sql.DB) *SubGroup4Repository {
	return &SubGroup4Repository{db: db}
}

func NewSubGroup4RepositoryWithTx(tx *sql.Tx) *SubGroup4Repository {
	return &SubGroup4Repository{tx: tx}
}

func (r *SubGroup4Repository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const subGroup4Columns = `id, job_id, raw_line, line_number, is_valid, validation_errors,
	transaction_code, qualifier, component_seq, destination_id, source_id,
	reporting_sre_id, rollup_sre_id, funds_transfer_sre_id, settlement_service,
	settlement_currency_code, clearing_currency_code, business_mode, no_data_indicator,
	report_group, report_subgroup, report_id_number, report_id_suffix,
	settlement_date, settlement_date_raw, report_date, report_date_raw,
	from_date, from_date_raw, to_date, to_date_raw,
	charge_type_code, business_transaction_type, business_transaction_cycle,
	reversal_indicator, return_indicator, jurisdiction_code, inter_regional_routing,
	source_country_code, destination_country_code, source_region_code, destination_region_code,
	fee_level_descriptor, cr_db_net_indicator, summary_level, reimbursement_attr,
	created_at, updated_at, version`

// reportIDsForFamily inverts the family roll-up for SQL IN clauses.
func reportIDsForFamily(family string) []string {
	switch family {
	case "120":
		return []string{"120"}
	case "130":
		return []string{"130", "131", "135", "136"}
	case "140":
		return []string{"140"}
	}
	return nil
}

func (r *SubGroup4Repository) Insert(ctx context.Context, rec *epin.SubGroup4Record) error {
	query := `INSERT INTO subgroup4_records (` + subGroup4Columns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34,
		$35, $36, $37, $38, $39, $40, $41, $42, $43, $44, $45, $46, $47, $48, $49)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		rec.ID.String(), rec.JobID.String(), rec.RawLine, rec.LineNumber,
		rec.IsValid, joinErrors(rec.ValidationErrors),
		rec.TransactionCode, rec.Qualifier, rec.ComponentSeq, rec.DestinationID, rec.SourceID,
		rec.ReportingSreID, rec.RollupSreID, rec.FundsTransferSreID, rec.SettlementService,
		rec.SettlementCurrencyCode, rec.ClearingCurrencyCode, rec.BusinessMode, rec.NoDataIndicator,
		rec.ReportGroup, rec.ReportSubgroup, rec.ReportIDNumber, rec.ReportIDSuffix,
		nullTime(rec.SettlementDate), rec.SettlementDateRaw, nullTime(rec.ReportDate), rec.ReportDateRaw,
		nullTime(rec.FromDate), rec.FromDateRaw, nullTime(rec.ToDate), rec.ToDateRaw,
		rec.ChargeTypeCode, rec.BusinessTransactionType, rec.BusinessTransactionCycle,
		rec.ReversalIndicator, rec.ReturnIndicator, rec.JurisdictionCode, rec.InterRegionalRouting,
		rec.SourceCountryCode, rec.DestinationCountryCode, rec.SourceRegionCode, rec.DestinationRegionCode,
		rec.FeeLevelDescriptor, rec.CrDbNetIndicator, rec.SummaryLevel, rec.ReimbursementAttr,
		rec.CreatedAt, rec.UpdatedAt, rec.Version)

	if err != nil {
		return recorddb.NewQueryError("insert_subgroup4", "failed to insert subgroup-4 record", err)
	}
	return nil
}

func scanSubGroup4(scan func(dest ...interface{}) error) (*epin.SubGroup4Record, error) {
	var (
		rec                        epin.SubGroup4Record
		id, jobID, errText         string
		settlement, report, fd, td sql.NullTime
	)

	err := scan(&id, &jobID, &rec.RawLine, &rec.LineNumber, &rec.IsValid, &errText,
		&rec.TransactionCode, &rec.Qualifier, &rec.ComponentSeq, &rec.DestinationID, &rec.SourceID,
		&rec.ReportingSreID, &rec.RollupSreID, &rec.FundsTransferSreID, &rec.SettlementService,
		&rec.SettlementCurrencyCode, &rec.ClearingCurrencyCode, &rec.BusinessMode, &rec.NoDataIndicator,
		&rec.ReportGroup, &rec.ReportSubgroup, &rec.ReportIDNumber, &rec.ReportIDSuffix,
		&settlement, &rec.SettlementDateRaw, &report, &rec.ReportDateRaw,
		&fd, &rec.FromDateRaw, &td, &rec.ToDateRaw,
		&rec.ChargeTypeCode, &rec.BusinessTransactionType, &rec.BusinessTransactionCycle,
		&rec.ReversalIndicator, &rec.ReturnIndicator, &rec.JurisdictionCode, &rec.InterRegionalRouting,
		&rec.SourceCountryCode, &rec.DestinationCountryCode, &rec.SourceRegionCode, &rec.DestinationRegionCode,
		&rec.FeeLevelDescriptor, &rec.CrDbNetIndicator, &rec.SummaryLevel, &rec.ReimbursementAttr,
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
	rec.FromDate = timePtr(fd)
	rec.ToDate = timePtr(td)
	return &rec, nil
}

func (r *SubGroup4Repository) queryRecords(ctx context.Context, operation, query string, args ...interface{}) ([]*epin.SubGroup4Record, error) {
	rows, err := r.getExecutor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, recorddb.NewQueryError(operation, "failed to query subgroup-4 records", err)
	}
	defer rows.Close()

	var records []*epin.SubGroup4Record
	for rows.Next() {
		rec, err := scanSubGroup4(rows.Scan)
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

func (r *SubGroup4Repository) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.SubGroup4Record, error) {
	query := `SELECT ` + subGroup4Columns + ` FROM subgroup4_records WHERE job_id = $1 ORDER BY line_number ASC`
	return r.queryRecords(ctx, "find_subgroup4_by_job", query, jobID.String())
}

func (r *SubGroup4Repository) FindLastByJobAndFamily(ctx context.Context, jobID uuid.UUID, family string) (*epin.SubGroup4Record, error) {
	ids := reportIDsForFamily(family)
	if ids == nil {
		return nil, nil
	}

	query := `SELECT ` + subGroup4Columns + ` FROM subgroup4_records
			  WHERE job_id = $1 AND report_id_number IN (`
	args := []interface{}{jobID.String()}
	for i, id := range ids {
		if i > 0 {
			query += ", "
		}
		args = append(args, id)
		query += placeholder(len(args))
	}
	query += `) ORDER BY line_number DESC LIMIT 1`

	row := r.getExecutor().QueryRowContext(ctx, query, args...)
	rec, err := scanSubGroup4(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, recorddb.NewQueryError("find_last_subgroup4", "failed to query subgroup-4 record", err)
	}
	return rec, nil
}

func (r *SubGroup4Repository) FindWithChildren(ctx context.Context, family string, f recorddb.Filter) ([]recorddb.JoinedSubGroup4, error) {
	ids := reportIDsForFamily(family)
	if ids == nil {
		return nil, nil
	}

	query := `SELECT ` + subGroup4Columns + ` FROM subgroup4_records WHERE report_id_number IN (`
	var args []interface{}
	for i, id := range ids {
		if i > 0 {
			query += ", "
		}
		args = append(args, id)
		query += placeholder(len(args))
	}
	query += `)`

	query, args = appendFilter(query, args, f, "settlement_date", "settlement_currency_code", "business_mode")
	query += ` ORDER BY business_mode ASC, business_transaction_type ASC, business_transaction_cycle ASC, line_number ASC`

	parents, err := r.queryRecords(ctx, "find_subgroup4_with_children", query, args...)
	if err != nil {
		return nil, err
	}

	// Two queries instead of one join; child rows are re-parented in memory
	// to keep the scan logic per-table.
	childRepo := &Tcr1Repository{db: r.db, tx: r.tx}
	joined := make([]recorddb.JoinedSubGroup4, 0, len(parents))
	for _, parent := range parents {
		children, err := childRepo.FindByParent(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		joined = append(joined, recorddb.JoinedSubGroup4{Record: parent, Children: children})
	}
	return joined, nil
}

func (r *SubGroup4Repository) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.getExecutor().ExecContext(ctx,
		`DELETE FROM subgroup4_records WHERE job_id = $1`, jobID.String())
	if err != nil {
		return recorddb.NewQueryError("delete_subgroup4_by_job", "failed to delete subgroup-4 records", err)
	}
	return nil
}
