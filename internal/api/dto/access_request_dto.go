package dto

import (
	"time"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// CreateAccessRequest payload.
type CreateAccessRequest struct {
	Module  string `json:"module" validate:"required,module"`
	Feature string `json:"feature" validate:"required,feature"`
	Reason  string `json:"reason" validate:"max=4000"`
}

// ReviewAccessRequest payload.
type ReviewAccessRequest struct {
	Decision string  `json:"decision" validate:"required,decision"`
	Comment  *string `json:"comment"`
}

// AccessRequestResponse shape.
type AccessRequestResponse struct {
	ID             string     `json:"id"`
	RequesterEmail string     `json:"requester_email"`
	RequesterRole  string     `json:"requester_role"`
	RequesterName  string     `json:"requester_name,omitempty"`
	Module         string     `json:"module"`
	Feature        string     `json:"feature"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	ReviewerEmail  *string    `json:"reviewer_email,omitempty"`
	ReviewerRole   *string    `json:"reviewer_role,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewComment  *string    `json:"review_comment,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewAccessRequestResponse maps domain.AccessRequest.
func NewAccessRequestResponse(req domain.AccessRequest) AccessRequestResponse {
	out := AccessRequestResponse{
		ID:             req.ID,
		RequesterEmail: string(req.RequesterEmail),
		RequesterRole:  string(req.RequesterRole),
		RequesterName:  req.RequesterName,
		Module:         string(req.Module),
		Feature:        string(req.Feature),
		Reason:         req.Reason,
		Status:         string(req.Status),
		ReviewedAt:     req.ReviewedAt,
		ReviewComment:  req.ReviewComment,
		CreatedAt:      req.CreatedAt,
	}
	if req.ReviewerEmail != nil {
		email := string(*req.ReviewerEmail)
		out.ReviewerEmail = &email
	}
	if req.ReviewerRole != nil {
		role := string(*req.ReviewerRole)
		out.ReviewerRole = &role
	}
	return out
}
