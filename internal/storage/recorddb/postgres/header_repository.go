package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// HeaderRepository implements recorddb.HeaderRepository for SQL backends.
type HeaderRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewHeaderRepository(db *sql.DB) *HeaderRepository {
	return &HeaderRepository{db: db}
}

func NewHeaderRepositoryWithTx(tx *sql.Tx) *HeaderRepository {
	return &HeaderRepository{tx: tx}
}

func (r *HeaderRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *HeaderRepository) Insert(ctx context.Context, h *epin.EpinFileHeader) error {
	query := `INSERT INTO epin_file_headers (id, job_id, routing_number, file_timestamp_raw,
			  file_timestamp, sequence_number, client_id, file_sequence, raw_line,
			  is_valid, validation_errors, created_at, updated_at, version)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.getExecutor().ExecContext(ctx, query,
		h.ID.String(), h.JobID.String(), h.RoutingNumber, h.FileTimestampRaw,
		nullTime(h.FileTimestamp), h.SequenceNumber, h.ClientID, h.FileSequence, h.RawLine,
		h.IsValid, joinErrors(h.ValidationErrors), h.CreatedAt, h.UpdatedAt, h.Version)

	if err != nil {
		return recorddb.NewQueryError("insert_header", "failed to insert file header", err)
	}
	return nil
}

func (r *HeaderRepository) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*epin.EpinFileHeader, error) {
	query := `SELECT id, job_id, routing_number, file_timestamp_raw, file_timestamp,
			  sequence_number, client_id, file_sequence, raw_line,
			  is_valid, validation_errors, created_at, updated_at, version
			  FROM epin_file_headers WHERE job_id = $1 ORDER BY created_at ASC`

	rows, err := r.getExecutor().QueryContext(ctx, query, jobID.String())
	if err != nil {
		return nil, recorddb.NewQueryError("find_headers_by_job", "failed to query file headers", err)
	}
	defer rows.Close()

	var headers []*epin.EpinFileHeader
	for rows.Next() {
		var (
			h         epin.EpinFileHeader
			id, job   string
			ts        sql.NullTime
			errText   string
		)
		if err := rows.Scan(&id, &job, &h.RoutingNumber, &h.FileTimestampRaw, &ts,
			&h.SequenceNumber, &h.ClientID, &h.FileSequence, &h.RawLine,
			&h.IsValid, &errText, &h.CreatedAt, &h.UpdatedAt, &h.Version); err != nil {
			return nil, recorddb.NewQueryError("find_headers_by_job", "failed to scan row", err)
		}
		if h.ID, err = uuid.Parse(id); err != nil {
			return nil, recorddb.NewQueryError("find_headers_by_job", "invalid header id", err)
		}
		if h.JobID, err = uuid.Parse(job); err != nil {
			return nil, recorddb.NewQueryError("find_headers_by_job", "invalid job id", err)
		}
		h.FileTimestamp = timePtr(ts)
		h.ValidationErrors = splitErrors(errText)
		headers = append(headers, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, recorddb.NewQueryError("find_headers_by_job", "error iterating rows", err)
	}
	return headers, nil
}

func (r *HeaderRepository) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.getExecutor().ExecContext(ctx,
		`DELETE FROM epin_file_headers WHERE job_id = $1`, jobID.String())
	if err != nil {
		return recorddb.NewQueryError("delete_headers_by_job", "failed to delete file headers", err)
	}
	return nil
}
