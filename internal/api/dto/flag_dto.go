package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateFlagRequest payload.
type CreateFlagRequest struct {
	Reason  domain.FlagReason `json:"reason"`
	Comment string            `json:"comment"`
}

// ReviewFlagRequest payload.
type ReviewFlagRequest struct {
	Decision domain.ReviewDecision `json:"decision"`
}

// FlagResponse represents a moderation report.
type FlagResponse struct {
	ID         string            `json:"id"`
	IssueID    string            `json:"issue_id"`
	ReporterID string            `json:"reporter_id"`
	Reason     domain.FlagReason `json:"reason"`
	Comment    *string           `json:"comment,omitempty"`
	Reviewed   bool              `json:"reviewed"`
	CreatedAt  time.Time         `json:"created_at"`
}

// FlaggedIssueResponse pairs a flag with the issue it targets. Issue is nil
// when the issue was deleted after the flag was filed.
type FlaggedIssueResponse struct {
	Flag  FlagResponse   `json:"flag"`
	Issue *IssueResponse `json:"issue,omitempty"`
}
