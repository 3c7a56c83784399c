package domain

import "time"

// FlagReason enumerates why an issue was reported for moderation.
type FlagReason string

const (
	FlagReasonInappropriate FlagReason = "inappropriate"
	FlagReasonSpam          FlagReason = "spam"
	FlagReasonDuplicate     FlagReason = "duplicate"
	FlagReasonOther         FlagReason = "other"
)

// ValidFlagReason reports whether r names a known reason.
func ValidFlagReason(r FlagReason) bool {
	switch r {
	case FlagReasonInappropriate, FlagReasonSpam, FlagReasonDuplicate, FlagReasonOther:
		return true
	}
	return false
}

// ReviewDecision enumerates moderator verdicts on a flag.
type ReviewDecision string

const (
	ReviewApprove ReviewDecision = "approve"
	ReviewReject  ReviewDecision = "reject"
	ReviewDelete  ReviewDecision = "delete"
)

// ValidReviewDecision reports whether d names a known decision.
func ValidReviewDecision(d ReviewDecision) bool {
	switch d {
	case ReviewApprove, ReviewReject, ReviewDelete:
		return true
	}
	return false
}

// FlagReport is a moderation report filed by an actor against an issue.
// At most one report exists per (issue, reporter) pair.
type FlagReport struct {
	ID         string
	IssueID    string
	ReporterID string
	Reason     FlagReason
	Comment    *string
	Reviewed   bool
	CreatedAt  time.Time
}
