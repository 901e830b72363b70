package domain

import (
	"strings"
	"time"
)

// AccessRequestStatus enumerates workflow states.
type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "pending"
	AccessRequestApproved AccessRequestStatus = "approved"
	AccessRequestRejected AccessRequestStatus = "rejected"
)

// ParseAccessRequestStatus converts user input into a status.
func ParseAccessRequestStatus(raw string) (AccessRequestStatus, bool) {
	switch status := AccessRequestStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case AccessRequestPending, AccessRequestApproved, AccessRequestRejected:
		return status, true
	}
	return "", false
}

// Terminal reports whether no further transition is allowed.
func (s AccessRequestStatus) Terminal() bool {
	return s == AccessRequestApproved || s == AccessRequestRejected
}

// ReviewDecision is the reviewer verdict.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// ParseReviewDecision converts user input into a decision.
func ParseReviewDecision(raw string) (ReviewDecision, bool) {
	switch decision := ReviewDecision(strings.ToLower(strings.TrimSpace(raw))); decision {
	case DecisionApprove, DecisionReject:
		return decision, true
	}
	return "", false
}

// Status maps the decision onto the terminal state it produces.
func (d ReviewDecision) Status() AccessRequestStatus {
	if d == DecisionApprove {
		return AccessRequestApproved
	}
	return AccessRequestRejected
}

// AccessRequest asks a reviewer to lift a feature restriction.
type AccessRequest struct {
	ID             string
	RequesterEmail Email
	RequesterRole  Role
	RequesterName  string
	Module         Module
	Feature        Feature
	Reason         string
	Status         AccessRequestStatus
	ReviewerEmail  *Email
	ReviewerRole   *Role
	ReviewedAt     *time.Time
	ReviewComment  *string
	CreatedAt      time.Time
}

// AccessReview carries the audit fields written with a transition.
type AccessReview struct {
	Status        AccessRequestStatus
	ReviewerEmail Email
	ReviewerRole  Role
	ReviewedAt    time.Time
	Comment       *string
}
