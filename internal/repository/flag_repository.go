package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

const uniqueViolation = "23505"

// FlagRepository encapsulates flag report persistence. Create is atomic with
// respect to the (issue, reporter) uniqueness check: the constraint lives in
// the storage layer, not in an application-level pre-check.
type FlagRepository interface {
	Create(ctx context.Context, flag *domain.FlagReport) error
	GetByID(ctx context.Context, id string) (*domain.FlagReport, error)
	List(ctx context.Context, reviewed *bool, limit, offset int) ([]domain.FlagReport, error)
	MarkReviewed(ctx context.Context, id string) (*domain.FlagReport, error)
	Delete(ctx context.Context, id string) error
	DeleteByIssue(ctx context.Context, issueID string) error
}

type flagRepository struct {
	pool *pgxpool.Pool
}

// NewFlagRepository returns a Postgres-backed implementation.
func NewFlagRepository(pool *pgxpool.Pool) FlagRepository {
	return &flagRepository{pool: pool}
}

func (r *flagRepository) Create(ctx context.Context, flag *domain.FlagReport) error {
	const query = `
        INSERT INTO flag_reports (issue_id, reported_by, reason, comment, reviewed)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		flag.IssueID,
		flag.ReporterID,
		flag.Reason,
		flag.Comment,
		flag.Reviewed,
	).Scan(&flag.ID, &flag.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateFlag
		}
		return err
	}
	return nil
}

func (r *flagRepository) GetByID(ctx context.Context, id string) (*domain.FlagReport, error) {
	const query = `
        SELECT id, issue_id, reported_by, reason, comment, reviewed, created_at
        FROM flag_reports WHERE id=$1`
	var flag domain.FlagReport
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&flag.ID,
		&flag.IssueID,
		&flag.ReporterID,
		&flag.Reason,
		&flag.Comment,
		&flag.Reviewed,
		&flag.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &flag, nil
}

func (r *flagRepository) List(ctx context.Context, reviewed *bool, limit, offset int) ([]domain.FlagReport, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
        SELECT id, issue_id, reported_by, reason, comment, reviewed, created_at
        FROM flag_reports`
	args := []any{}
	if reviewed != nil {
		args = append(args, *reviewed)
		query += ` WHERE reviewed=$1`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FlagReport
	for rows.Next() {
		var flag domain.FlagReport
		if err := rows.Scan(
			&flag.ID,
			&flag.IssueID,
			&flag.ReporterID,
			&flag.Reason,
			&flag.Comment,
			&flag.Reviewed,
			&flag.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, flag)
	}
	return result, rows.Err()
}

func (r *flagRepository) MarkReviewed(ctx context.Context, id string) (*domain.FlagReport, error) {
	const query = `
        UPDATE flag_reports SET reviewed=TRUE WHERE id=$1
        RETURNING id, issue_id, reported_by, reason, comment, reviewed, created_at`
	var flag domain.FlagReport
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&flag.ID,
		&flag.IssueID,
		&flag.ReporterID,
		&flag.Reason,
		&flag.Comment,
		&flag.Reviewed,
		&flag.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &flag, nil
}

func (r *flagRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM flag_reports WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *flagRepository) DeleteByIssue(ctx context.Context, issueID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM flag_reports WHERE issue_id=$1`, issueID)
	return err
}
