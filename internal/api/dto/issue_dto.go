package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    *string               `json:"category"`
	Priority    *domain.IssuePriority `json:"priority"`
	Location    *string               `json:"location"`
	Latitude    *float64              `json:"latitude"`
	Longitude   *float64              `json:"longitude"`
	IsAnonymous bool                  `json:"is_anonymous"`
}

// IssueResponse is the canonical issue representation. ReporterID is omitted
// for anonymous issues unless the viewer is the reporter or a moderator.
// DistanceKm appears only on geo-filtered list results.
type IssueResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.IssueCategory `json:"category"`
	Status      domain.IssueStatus   `json:"status"`
	Priority    domain.IssuePriority `json:"priority"`
	Location    *string              `json:"location,omitempty"`
	Latitude    *float64             `json:"latitude,omitempty"`
	Longitude   *float64             `json:"longitude,omitempty"`
	ReporterID  *string              `json:"reporter_id,omitempty"`
	AssigneeID  *string              `json:"assignee_id,omitempty"`
	IsAnonymous bool                 `json:"is_anonymous"`
	Feedback    *string              `json:"feedback,omitempty"`
	LikesCount  int                  `json:"likes_count"`
	DistanceKm  *float64             `json:"distance_km,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// LikeResponse reports the outcome of a like toggle.
type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// AddPhotoRequest payload.
type AddPhotoRequest struct {
	URL string `json:"url"`
}

// PhotoResponse metadata.
type PhotoResponse struct {
	ID         string    `json:"id"`
	IssueID    string    `json:"issue_id"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}
