package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// AccessRequestFilter captures reviewer queue and history filters.
type AccessRequestFilter struct {
	RequesterEmail *domain.Email
	Module         *domain.Module
	Feature        *domain.Feature
	Status         *domain.AccessRequestStatus
	Limit          int
	Offset         int
}

// AccessRequestRepository encapsulates access request persistence.
type AccessRequestRepository interface {
	Create(ctx context.Context, req *domain.AccessRequest) error
	GetByID(ctx context.Context, id string) (*domain.AccessRequest, error)
	FindPending(ctx context.Context, email domain.Email, module domain.Module, feature domain.Feature) (*domain.AccessRequest, error)
	List(ctx context.Context, filter AccessRequestFilter) ([]domain.AccessRequest, error)
	// Review moves a pending request to a terminal state and stamps the audit
	// fields in one statement. It returns ErrNotPending when the stored status
	// is no longer pending.
	Review(ctx context.Context, id string, review domain.AccessReview) (*domain.AccessRequest, error)
}

type accessRequestRepository struct {
	pool *pgxpool.Pool
}

// NewAccessRequestRepository instantiates repository.
func NewAccessRequestRepository(pool *pgxpool.Pool) AccessRequestRepository {
	return &accessRequestRepository{pool: pool}
}

const accessRequestColumns = `id, requester_email, requester_role, requester_name, module, feature, reason,
               status, reviewer_email, reviewer_role, reviewed_at, review_comment, created_at`

func (r *accessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) error {
	const query = `
        INSERT INTO access_requests (id, requester_email, requester_role, requester_name, module, feature, reason, status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		req.ID,
		string(req.RequesterEmail),
		string(req.RequesterRole),
		req.RequesterName,
		string(req.Module),
		string(req.Feature),
		req.Reason,
		string(req.Status),
		req.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *accessRequestRepository) GetByID(ctx context.Context, id string) (*domain.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE id=$1`
	return scanAccessRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *accessRequestRepository) FindPending(ctx context.Context, email domain.Email, module domain.Module, feature domain.Feature) (*domain.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests
             WHERE requester_email=$1 AND module=$2 AND feature=$3 AND status='pending'
             ORDER BY created_at DESC LIMIT 1`
	return scanAccessRequest(r.pool.QueryRow(ctx, query, string(email), string(module), string(feature)))
}

func (r *accessRequestRepository) List(ctx context.Context, filter AccessRequestFilter) ([]domain.AccessRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterEmail != nil {
		args = append(args, string(*filter.RequesterEmail))
		clauses = append(clauses, fmt.Sprintf("requester_email=$%d", len(args)))
	}
	if filter.Module != nil {
		args = append(args, string(*filter.Module))
		clauses = append(clauses, fmt.Sprintf("module=$%d", len(args)))
	}
	if filter.Feature != nil {
		args = append(args, string(*filter.Feature))
		clauses = append(clauses, fmt.Sprintf("feature=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}

	limit, offset := NormalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM access_requests WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		accessRequestColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AccessRequest{}
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *accessRequestRepository) Review(ctx context.Context, id string, review domain.AccessReview) (*domain.AccessRequest, error) {
	query := `
        UPDATE access_requests
           SET status=$2, reviewer_email=$3, reviewer_role=$4, reviewed_at=$5, review_comment=$6
         WHERE id=$1 AND status='pending'
     RETURNING ` + accessRequestColumns
	updated, err := scanAccessRequest(r.pool.QueryRow(ctx, query,
		id,
		string(review.Status),
		string(review.ReviewerEmail),
		string(review.ReviewerRole),
		review.ReviewedAt,
		review.Comment,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrNotPending
}

func scanAccessRequest(row pgx.Row) (*domain.AccessRequest, error) {
	var (
		req           domain.AccessRequest
		requester     string
		requesterRole string
		module        string
		feature       string
		status        string
		reviewer      *string
		reviewerRole  *string
	)
	if err := row.Scan(
		&req.ID,
		&requester,
		&requesterRole,
		&req.RequesterName,
		&module,
		&feature,
		&req.Reason,
		&status,
		&reviewer,
		&reviewerRole,
		&req.ReviewedAt,
		&req.ReviewComment,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	req.RequesterEmail = domain.Email(requester)
	req.RequesterRole = domain.Role(requesterRole)
	req.Module = domain.Module(module)
	req.Feature = domain.Feature(feature)
	req.Status = domain.AccessRequestStatus(status)
	if reviewer != nil {
		email := domain.Email(*reviewer)
		req.ReviewerEmail = &email
	}
	if reviewerRole != nil {
		role := domain.Role(*reviewerRole)
		req.ReviewerRole = &role
	}
	if req.ReviewedAt != nil {
		utc := req.ReviewedAt.UTC()
		req.ReviewedAt = &utc
	}
	req.CreatedAt = req.CreatedAt.UTC()
	return &req, nil
}

// NormalizePage applies the default page size of 20, caps it at 200 and
// floors offset at zero.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
