package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

const foreignKeyViolation = "23503"

// IssueFilter captures list predicates. A nil pointer field means the
// predicate is not applied. Limit < 0 disables pagination; the query
// engine needs the full visible set for a geo scan.
type IssueFilter struct {
	ReporterID *string
	AssigneeID *string
	Category   *domain.IssueCategory
	Statuses   []domain.IssueStatus
	Priorities []domain.IssuePriority
	Limit      int
	Offset     int
}

// IssueRepository encapsulates issue persistence. Claim, Resolve, Reject and
// ToggleLike apply their guard and write atomically; a failed guard surfaces
// as ErrNoTransition with the stored record untouched.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	Claim(ctx context.Context, issueID, providerID string) (*domain.Issue, error)
	Resolve(ctx context.Context, issueID, providerID string) (*domain.Issue, error)
	Reject(ctx context.Context, issueID string) (*domain.Issue, error)
	ToggleLike(ctx context.Context, issueID, actorID string) (liked bool, likesCount int, err error)
	HasLiked(ctx context.Context, issueID, actorID string) (bool, error)
	Delete(ctx context.Context, issueID string) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository returns a Postgres-backed implementation.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, status, priority, location,
               latitude, longitude, reported_by, assigned_to, is_anonymous, feedback,
               (SELECT COUNT(*) FROM issue_likes l WHERE l.issue_id = issues.id),
               created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, category, status, priority, location,
                            latitude, longitude, reported_by, assigned_to, is_anonymous)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Status,
		issue.Priority,
		issue.Location,
		issue.Latitude,
		issue.Longitude,
		issue.ReporterID,
		issue.AssigneeID,
		issue.IsAnonymous,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET title=$1, description=$2, category=$3, priority=$4,
            location=$5, latitude=$6, longitude=$7, feedback=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Location,
		issue.Latitude,
		issue.Longitude,
		issue.Feedback,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	issue, err := scanIssueRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reported_by=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at DESC, id ASC`,
		issueColumns, strings.Join(clauses, " AND "))
	if filter.Limit >= 0 {
		limit := filter.Limit
		if limit == 0 {
			limit = 20
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query = fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// Claim assigns the issue to the provider iff it is unassigned and in a
// claimable state. The single UPDATE makes concurrent claims resolve to
// exactly one winner.
func (r *issueRepository) Claim(ctx context.Context, issueID, providerID string) (*domain.Issue, error) {
	query := fmt.Sprintf(`
        UPDATE issues SET assigned_to=$2, status=$3, updated_at=NOW()
        WHERE id=$1 AND assigned_to IS NULL AND status IN ($4,$5,$6)
        RETURNING %s`, issueColumns)
	issue, err := scanIssueRow(r.pool.QueryRow(ctx, query,
		issueID,
		providerID,
		domain.IssueStatusInProgress,
		domain.IssueStatusPending,
		domain.IssueStatusUnderReview,
		domain.IssueStatusAssigned,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTransition
		}
		return nil, err
	}
	return issue, nil
}

// Resolve moves an in-progress issue to resolved iff the caller is the assignee.
func (r *issueRepository) Resolve(ctx context.Context, issueID, providerID string) (*domain.Issue, error) {
	query := fmt.Sprintf(`
        UPDATE issues SET status=$3, updated_at=NOW()
        WHERE id=$1 AND assigned_to=$2 AND status=$4
        RETURNING %s`, issueColumns)
	issue, err := scanIssueRow(r.pool.QueryRow(ctx, query,
		issueID,
		providerID,
		domain.IssueStatusResolved,
		domain.IssueStatusInProgress,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTransition
		}
		return nil, err
	}
	return issue, nil
}

// Reject moves any non-terminal issue to rejected.
func (r *issueRepository) Reject(ctx context.Context, issueID string) (*domain.Issue, error) {
	query := fmt.Sprintf(`
        UPDATE issues SET status=$2, updated_at=NOW()
        WHERE id=$1 AND status NOT IN ($3,$4)
        RETURNING %s`, issueColumns)
	issue, err := scanIssueRow(r.pool.QueryRow(ctx, query,
		issueID,
		domain.IssueStatusRejected,
		domain.IssueStatusResolved,
		domain.IssueStatusRejected,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTransition
		}
		return nil, err
	}
	return issue, nil
}

// ToggleLike flips membership in the likes relation. The insert relies on the
// composite primary key, so concurrent first-likes collapse to one row.
func (r *issueRepository) ToggleLike(ctx context.Context, issueID, actorID string) (bool, int, error) {
	const insert = `
        INSERT INTO issue_likes (issue_id, account_id) VALUES ($1,$2)
        ON CONFLICT (issue_id, account_id) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, insert, issueID, actorID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return false, 0, ErrNotFound
		}
		return false, 0, err
	}
	liked := cmd.RowsAffected() > 0
	if !liked {
		const remove = `DELETE FROM issue_likes WHERE issue_id=$1 AND account_id=$2`
		if _, err := r.pool.Exec(ctx, remove, issueID, actorID); err != nil {
			return false, 0, err
		}
	}
	var count int
	const countQuery = `SELECT COUNT(*) FROM issue_likes WHERE issue_id=$1`
	if err := r.pool.QueryRow(ctx, countQuery, issueID).Scan(&count); err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *issueRepository) HasLiked(ctx context.Context, issueID, actorID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM issue_likes WHERE issue_id=$1 AND account_id=$2)`
	var liked bool
	if err := r.pool.QueryRow(ctx, query, issueID, actorID).Scan(&liked); err != nil {
		return false, err
	}
	return liked, nil
}

// Delete removes the issue; flags, photos and likes cascade via foreign keys.
func (r *issueRepository) Delete(ctx context.Context, issueID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, issueID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssueRow(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Status,
		&issue.Priority,
		&issue.Location,
		&issue.Latitude,
		&issue.Longitude,
		&issue.ReporterID,
		&issue.AssigneeID,
		&issue.IsAnonymous,
		&issue.Feedback,
		&issue.LikesCount,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssueRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}
