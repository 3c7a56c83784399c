package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated  EventType = "issue_created"
	EventIssueClaimed  EventType = "issue_claimed"
	EventIssueResolved EventType = "issue_resolved"
	EventIssueRejected EventType = "issue_rejected"
	EventIssueLiked    EventType = "issue_liked"
	EventIssueFlagged  EventType = "issue_flagged"
	EventFlagReviewed  EventType = "flag_reviewed"
)

// Actor encapsulates the acting identity for an event.
type Actor struct {
	ID   string           `json:"id"`
	Role domain.ActorRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category    domain.IssueCategory `json:"category"`
	Priority    domain.IssuePriority `json:"priority"`
	Title       string               `json:"title"`
	IsAnonymous bool                 `json:"is_anonymous"`
}

// IssueClaimedPayload payload.
type IssueClaimedPayload struct {
	ProviderID string `json:"provider_id"`
}

// IssueStatusChangedPayload payload for resolve/reject.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// IssueLikedPayload payload.
type IssueLikedPayload struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// IssueFlaggedPayload payload.
type IssueFlaggedPayload struct {
	FlagID string            `json:"flag_id"`
	Reason domain.FlagReason `json:"reason"`
}

// FlagReviewedPayload payload.
type FlagReviewedPayload struct {
	FlagID   string                `json:"flag_id"`
	Decision domain.ReviewDecision `json:"decision"`
}
