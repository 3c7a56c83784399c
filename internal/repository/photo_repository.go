package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// PhotoRepository stores photo metadata attached to issues.
type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.IssuePhoto) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.IssuePhoto, error)
	DeleteByIssue(ctx context.Context, issueID string) error
}

type photoRepository struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository returns a Postgres-backed implementation.
func NewPhotoRepository(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepository{pool: pool}
}

func (r *photoRepository) Create(ctx context.Context, photo *domain.IssuePhoto) error {
	const query = `
        INSERT INTO issue_photos (issue_id, url) VALUES ($1,$2)
        RETURNING id, uploaded_at`
	return r.pool.QueryRow(ctx, query, photo.IssueID, photo.URL).
		Scan(&photo.ID, &photo.UploadedAt)
}

func (r *photoRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.IssuePhoto, error) {
	const query = `
        SELECT id, issue_id, url, uploaded_at
        FROM issue_photos WHERE issue_id=$1 ORDER BY uploaded_at ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IssuePhoto
	for rows.Next() {
		var photo domain.IssuePhoto
		if err := rows.Scan(&photo.ID, &photo.IssueID, &photo.URL, &photo.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, photo)
	}
	return result, rows.Err()
}

func (r *photoRepository) DeleteByIssue(ctx context.Context, issueID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM issue_photos WHERE issue_id=$1`, issueID)
	return err
}
