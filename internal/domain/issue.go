package domain

import (
	"strings"
	"time"
)

// IssueCategory classifies the civic domain an issue belongs to.
type IssueCategory string

const (
	CategoryRoad        IssueCategory = "road"
	CategoryGarbage     IssueCategory = "garbage"
	CategoryWater       IssueCategory = "water"
	CategoryElectricity IssueCategory = "electricity"
	CategoryDrainage    IssueCategory = "drainage"
	CategoryStreetLight IssueCategory = "street_light"
	CategoryPollution   IssueCategory = "pollution"
	CategoryTraffic     IssueCategory = "traffic"
	CategoryOther       IssueCategory = "other"
)

// Categories lists every valid issue category.
func Categories() []IssueCategory {
	return []IssueCategory{
		CategoryRoad,
		CategoryGarbage,
		CategoryWater,
		CategoryElectricity,
		CategoryDrainage,
		CategoryStreetLight,
		CategoryPollution,
		CategoryTraffic,
		CategoryOther,
	}
}

// CategoryFromLabel normalizes a classifier/user supplied label. The second
// return reports whether the label named a known category; callers fall back
// to CategoryOther when it did not.
func CategoryFromLabel(label string) (IssueCategory, bool) {
	normalized := IssueCategory(strings.ToLower(strings.TrimSpace(label)))
	switch normalized {
	// labels the classifier has emitted across model versions
	case "sewage":
		return CategoryDrainage, true
	case "lighting", "streetlight":
		return CategoryStreetLight, true
	}
	for _, c := range Categories() {
		if c == normalized {
			return c, true
		}
	}
	return CategoryOther, false
}

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending     IssueStatus = "pending"
	IssueStatusUnderReview IssueStatus = "under_review"
	IssueStatusAssigned    IssueStatus = "assigned"
	IssueStatusInProgress  IssueStatus = "in_progress"
	IssueStatusResolved    IssueStatus = "resolved"
	IssueStatusRejected    IssueStatus = "rejected"
)

// IsTerminal reports whether no further transitions leave the state.
func (s IssueStatus) IsTerminal() bool {
	return s == IssueStatusResolved || s == IssueStatusRejected
}

// ClaimableStatuses are the states a provider may claim an issue from.
func ClaimableStatuses() []IssueStatus {
	return []IssueStatus{IssueStatusPending, IssueStatusUnderReview, IssueStatusAssigned}
}

// IssuePriority enumerates urgency levels.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "low"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityHigh   IssuePriority = "high"
	IssuePriorityUrgent IssuePriority = "urgent"
)

// ValidPriority reports whether p names a known priority.
func ValidPriority(p IssuePriority) bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityUrgent:
		return true
	}
	return false
}

// Issue is the aggregate for citizen-reported civic problems.
type Issue struct {
	ID          string
	Title       string
	Description string
	Category    IssueCategory
	Status      IssueStatus
	Priority    IssuePriority
	Location    *string
	Latitude    *float64
	Longitude   *float64
	ReporterID  string
	AssigneeID  *string
	IsAnonymous bool
	Feedback    *string
	LikesCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasCoordinates reports whether both latitude and longitude are present.
func (i *Issue) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}
