// Package postgres implements the record store contract over database/sql.
// Despite the name it serves both supported drivers; the sqlite driver is
// used for single-process deployments and CI. Placeholders use the $N form,
// which both drivers accept.
package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"           // postgres driver
	_ "modernc.org/sqlite"          // sqlite driver, cgo-free

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// RepositoryManager implements recorddb.RepositoryManager for SQL backends.
type RepositoryManager struct {
	db     *sql.DB
	config *recorddb.Config

	jobRepo    *JobRepository
	headerRepo *HeaderRepository
	vss110Repo *Vss110Repository
	sub4Repo   *SubGroup4Repository
	tcr1Repo   *Tcr1Repository
	systemRepo *SystemRepository
}

// NewRepositoryManager validates the configuration and returns an unopened
// manager.
func NewRepositoryManager(config *recorddb.Config) (*RepositoryManager, error) {
	if err := config.Validate(); err != nil {
		return nil, recorddb.NewConfigurationError("new_repository_manager", "invalid configuration", err)
	}
	return &RepositoryManager{config: config}, nil
}

func (rm *RepositoryManager) Open(ctx context.Context) error {
	dsn, err := rm.config.DSN()
	if err != nil {
		return recorddb.NewConfigurationError("open", "failed to build connection string", err)
	}

	sqlDB, err := sql.Open(rm.config.Driver, dsn)
	if err != nil {
		return recorddb.NewConnectionError("open", "failed to open database connection", err)
	}

	sqlDB.SetMaxOpenConns(rm.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(rm.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(rm.config.ConnMaxLifetime)

	ctxTimeout, cancel := context.WithTimeout(ctx, rm.config.DefaultTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctxTimeout); err != nil {
		sqlDB.Close()
		return recorddb.NewConnectionError("open", "failed to ping database", err)
	}

	rm.db = sqlDB

	if err := rm.initSchema(ctx); err != nil {
		rm.db.Close()
		rm.db = nil
		return recorddb.NewSchemaError("open", "failed to initialize schema", err)
	}

	rm.jobRepo = NewJobRepository(rm.db)
	rm.headerRepo = NewHeaderRepository(rm.db)
	rm.vss110Repo = NewVss110Repository(rm.db)
	rm.sub4Repo = NewSubGroup4Repository(rm.db)
	rm.tcr1Repo = NewTcr1Repository(rm.db)
	rm.systemRepo = NewSystemRepository(rm.db)

	return nil
}

func (rm *RepositoryManager) Close(ctx context.Context) error {
	if rm.db == nil {
		return nil
	}

	err := rm.db.Close()
	rm.db = nil

	rm.jobRepo = nil
	rm.headerRepo = nil
	rm.vss110Repo = nil
	rm.sub4Repo = nil
	rm.tcr1Repo = nil
	rm.systemRepo = nil

	if err != nil {
		return recorddb.NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

func (rm *RepositoryManager) Jobs() recorddb.JobRepository            { return rm.jobRepo }
func (rm *RepositoryManager) Headers() recorddb.HeaderRepository      { return rm.headerRepo }
func (rm *RepositoryManager) Vss110() recorddb.Vss110Repository       { return rm.vss110Repo }
func (rm *RepositoryManager) SubGroup4() recorddb.SubGroup4Repository { return rm.sub4Repo }
func (rm *RepositoryManager) Tcr1() recorddb.Tcr1Repository           { return rm.tcr1Repo }
func (rm *RepositoryManager) System() recorddb.SystemRepository       { return rm.systemRepo }

func (rm *RepositoryManager) WithTransaction(ctx context.Context, fn func(recorddb.TransactionContext) error) error {
	tx, err := rm.systemRepo.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return err
		}
		return err
	}

	return tx.Commit(ctx)
}

// initSchema creates the tables and indexes. DDL is restricted to the
// dialect subset both drivers accept.
func (rm *RepositoryManager) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS processing_jobs (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			file_type TEXT NOT NULL,
			report_format TEXT NOT NULL,
			client_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			total_records BIGINT NOT NULL DEFAULT 0,
			processed_records BIGINT NOT NULL DEFAULT 0,
			failed_records BIGINT NOT NULL DEFAULT 0,
			processing_started_at TIMESTAMP,
			processing_completed_at TIMESTAMP,
			retry_count INTEGER NOT NULL DEFAULT 0,
			max_retries INTEGER NOT NULL DEFAULT 0,
			error_summary TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			version BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS epin_file_headers (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			routing_number TEXT NOT NULL DEFAULT '',
			file_timestamp_raw TEXT NOT NULL DEFAULT '',
			file_timestamp TIMESTAMP,
			sequence_number TEXT NOT NULL DEFAULT '',
			client_id TEXT NOT NULL DEFAULT '',
			file_sequence TEXT NOT NULL DEFAULT '',
			raw_line TEXT NOT NULL,
			is_valid BOOLEAN NOT NULL,
			validation_errors TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			version BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS vss110_records (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			raw_line TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			is_valid BOOLEAN NOT NULL,
			validation_errors TEXT NOT NULL DEFAULT '',
			transaction_code TEXT NOT NULL DEFAULT '',
			qualifier TEXT NOT NULL DEFAULT '',
			component_seq TEXT NOT NULL DEFAULT '',
			destination_id TEXT NOT NULL DEFAULT '',
			source_id TEXT NOT NULL DEFAULT '',
			reporting_sre_id TEXT NOT NULL DEFAULT '',
			rollup_sre_id TEXT NOT NULL DEFAULT '',
			funds_transfer_sre_id TEXT NOT NULL DEFAULT '',
			settlement_service TEXT NOT NULL DEFAULT '',
			currency_code TEXT NOT NULL DEFAULT '',
			no_data_indicator TEXT NOT NULL DEFAULT '',
			report_group TEXT NOT NULL DEFAULT '',
			report_subgroup TEXT NOT NULL DEFAULT '',
			report_id_number TEXT NOT NULL DEFAULT '',
			report_id_suffix TEXT NOT NULL DEFAULT '',
			settlement_date TIMESTAMP,
			settlement_date_raw TEXT NOT NULL DEFAULT '',
			report_date TIMESTAMP,
			report_date_raw TEXT NOT NULL DEFAULT '',
			from_date TIMESTAMP,
			from_date_raw TEXT NOT NULL DEFAULT '',
			to_date TIMESTAMP,
			to_date_raw TEXT NOT NULL DEFAULT '',
			funds_transfer_date TIMESTAMP,
			funds_transfer_date_raw TEXT NOT NULL DEFAULT '',
			reimbursement_attr TEXT NOT NULL DEFAULT '',
			amount_type TEXT NOT NULL DEFAULT '',
			business_mode TEXT NOT NULL DEFAULT '',
			transaction_count BIGINT NOT NULL DEFAULT 0,
			credit_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			debit_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			net_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			amount_sign TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			version BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS subgroup4_records (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			raw_line TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			is_valid BOOLEAN NOT NULL,
			validation_errors TEXT NOT NULL DEFAULT '',
			transaction_code TEXT NOT NULL DEFAULT '',
			qualifier TEXT NOT NULL DEFAULT '',
			component_seq TEXT NOT NULL DEFAULT '',
			destination_id TEXT NOT NULL DEFAULT '',
			source_id TEXT NOT NULL DEFAULT '',
			reporting_sre_id TEXT NOT NULL DEFAULT '',
			rollup_sre_id TEXT NOT NULL DEFAULT '',
			funds_transfer_sre_id TEXT NOT NULL DEFAULT '',
			settlement_service TEXT NOT NULL DEFAULT '',
			settlement_currency_code TEXT NOT NULL DEFAULT '',
			clearing_currency_code TEXT NOT NULL DEFAULT '',
			business_mode TEXT NOT NULL DEFAULT '',
			no_data_indicator TEXT NOT NULL DEFAULT '',
			report_group TEXT NOT NULL DEFAULT '',
			report_subgroup TEXT NOT NULL DEFAULT '',
			report_id_number TEXT NOT NULL DEFAULT '',
			report_id_suffix TEXT NOT NULL DEFAULT '',
			settlement_date TIMESTAMP,
			settlement_date_raw TEXT NOT NULL DEFAULT '',
			report_date TIMESTAMP,
			report_date_raw TEXT NOT NULL DEFAULT '',
			from_date TIMESTAMP,
			from_date_raw TEXT NOT NULL DEFAULT '',
			to_date TIMESTAMP,
			to_date_raw TEXT NOT NULL DEFAULT '',
			charge_type_code TEXT NOT NULL DEFAULT '',
			business_transaction_type TEXT NOT NULL DEFAULT '',
			business_transaction_cycle TEXT NOT NULL DEFAULT '',
			reversal_indicator TEXT NOT NULL DEFAULT '',
			return_indicator TEXT NOT NULL DEFAULT '',
			jurisdiction_code TEXT NOT NULL DEFAULT '',
			inter_regional_routing TEXT NOT NULL DEFAULT '',
			source_country_code TEXT NOT NULL DEFAULT '',
			destination_country_code TEXT NOT NULL DEFAULT '',
			source_region_code TEXT NOT NULL DEFAULT '',
			destination_region_code TEXT NOT NULL DEFAULT '',
			fee_level_descriptor TEXT NOT NULL DEFAULT '',
			cr_db_net_indicator TEXT NOT NULL DEFAULT '',
			summary_level TEXT NOT NULL DEFAULT '',
			reimbursement_attr TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			version BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS tcr1_records (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			raw_line TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			is_valid BOOLEAN NOT NULL,
			validation_errors TEXT NOT NULL DEFAULT '',
			transaction_code TEXT NOT NULL DEFAULT '',
			qualifier TEXT NOT NULL DEFAULT '',
			component_seq TEXT NOT NULL DEFAULT '',
			rate_table_id TEXT NOT NULL DEFAULT '',
			first_count BIGINT NOT NULL DEFAULT 0,
			second_count BIGINT NOT NULL DEFAULT 0,
			first_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			first_amount_sign TEXT NOT NULL DEFAULT '',
			second_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			second_amount_sign TEXT NOT NULL DEFAULT '',
			third_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			third_amount_sign TEXT NOT NULL DEFAULT '',
			fourth_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			fourth_amount_sign TEXT NOT NULL DEFAULT '',
			fifth_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			fifth_amount_sign TEXT NOT NULL DEFAULT '',
			sixth_amount NUMERIC(20,2) NOT NULL DEFAULT 0,
			sixth_amount_sign TEXT NOT NULL DEFAULT '',
			destination_id TEXT NOT NULL DEFAULT '',
			parent_id TEXT,
			parent_report_number TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			version BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON processing_jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_client ON processing_jobs(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON processing_jobs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_headers_job ON epin_file_headers(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vss110_job ON vss110_records(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vss110_settlement ON vss110_records(settlement_date, currency_code)`,
		`CREATE INDEX IF NOT EXISTS idx_subgroup4_job ON subgroup4_records(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subgroup4_report ON subgroup4_records(report_id_number)`,
		`CREATE INDEX IF NOT EXISTS idx_subgroup4_settlement ON subgroup4_records(settlement_date, settlement_currency_code)`,
		`CREATE INDEX IF NOT EXISTS idx_tcr1_job ON tcr1_records(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tcr1_parent ON tcr1_records(parent_id)`,
	}

	for _, query := range queries {
		if _, err := rm.db.ExecContext(ctx, query); err != nil {
			return recorddb.NewSchemaError("init_schema", "failed to execute schema query", err)
		}
	}
	return nil
}
