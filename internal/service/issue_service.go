package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/classifier"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssueService coordinates issue submission and the lifecycle state machine.
type IssueService struct {
	issues     repository.IssueRepository
	photos     repository.PhotoRepository
	classifier classifier.Classifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	PhotoRepo  repository.PhotoRepository
	Classifier classifier.Classifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// IssueCreateInput describes the issue submission payload.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    *string
	Priority    *domain.IssuePriority
	Location    *string
	Latitude    *float64
	Longitude   *float64
	IsAnonymous bool
}

// LikeResult reports the outcome of a like toggle.
type LikeResult struct {
	Liked      bool
	LikesCount int
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		photos:     deps.PhotoRepo,
		classifier: deps.Classifier,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create submits a new issue for the actor. Issues always start pending; the
// category is auto-classified from the description when the submitter omitted
// it, and the anonymity flag is honored only here.
func (s *IssueService) Create(ctx context.Context, actor domain.Actor, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, apperrors.NewValidationError("latitude and longitude must be provided together", nil)
	}

	priority := domain.IssuePriorityMedium
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		priority = *input.Priority
	}

	category, err := s.resolveCategory(ctx, input.Category, description)
	if err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		Title:       title,
		Description: description,
		Category:    category,
		Status:      domain.IssueStatusPending,
		Priority:    priority,
		Location:    input.Location,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ReporterID:  actor.ID,
		IsAnonymous: input.IsAnonymous,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.IssueCreatedPayload{
			Category:    issue.Category,
			Priority:    issue.Priority,
			Title:       issue.Title,
			IsAnonymous: issue.IsAnonymous,
		},
	})
	return issue, nil
}

// resolveCategory validates a submitted category or consults the classifier.
// Classifier labels are untrusted: anything outside the enumerated set, and
// any classifier failure, degrades to the "other" bucket.
func (s *IssueService) resolveCategory(ctx context.Context, submitted *string, description string) (domain.IssueCategory, error) {
	if submitted != nil && strings.TrimSpace(*submitted) != "" {
		category, ok := domain.CategoryFromLabel(*submitted)
		if !ok {
			return "", apperrors.NewValidationError("unknown category", map[string]any{"category": *submitted})
		}
		return category, nil
	}
	if s.classifier == nil {
		return domain.CategoryOther, nil
	}
	label, err := s.classifier.Classify(ctx, description)
	if err != nil {
		s.logger.Warn("classifier unavailable, defaulting category", zap.Error(err))
		return domain.CategoryOther, nil
	}
	category, ok := domain.CategoryFromLabel(label)
	if !ok {
		s.logger.Info("classifier returned unknown label", zap.String("label", label))
		return domain.CategoryOther, nil
	}
	return category, nil
}

// Get fetches an issue the actor is allowed to see: consumers their own,
// providers their profession's category, moderators and admins everything.
func (s *IssueService) Get(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, mapIssueError(err, issueID)
	}
	switch actor.Role {
	case domain.RoleConsumer:
		if issue.ReporterID != actor.ID {
			return nil, apperrors.NewForbidden("not your issue")
		}
	case domain.RoleProvider:
		if actor.Profession == nil || issue.Category != *actor.Profession {
			return nil, apperrors.NewForbidden("issue outside your profession")
		}
	case domain.RoleModerator, domain.RoleAdmin:
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	return issue, nil
}

// Claim assigns an unclaimed issue to the calling provider and moves it to
// in_progress. Exactly one of any set of concurrent claimants wins; the rest
// observe a conflict.
func (s *IssueService) Claim(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	if actor.Role != domain.RoleProvider {
		return nil, apperrors.NewForbidden("only providers can claim issues")
	}
	issue, err := s.issues.Claim(ctx, issueID, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return nil, s.classifyClaimFailure(ctx, issueID)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueClaimed,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.IssueClaimedPayload{ProviderID: actor.ID},
	})
	return issue, nil
}

func (s *IssueService) classifyClaimFailure(ctx context.Context, issueID string) error {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return mapIssueError(err, issueID)
	}
	if issue.AssigneeID != nil {
		return apperrors.NewConflict("issue already claimed", map[string]any{"issue_id": issueID})
	}
	return apperrors.NewInvalidTransition("issue cannot be claimed from its current status",
		map[string]any{"status": issue.Status})
}

// Resolve completes an in-progress issue. Only the assignee may resolve.
func (s *IssueService) Resolve(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	if actor.Role != domain.RoleProvider {
		return nil, apperrors.NewForbidden("only providers can resolve issues")
	}
	issue, err := s.issues.Resolve(ctx, issueID, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return nil, s.classifyResolveFailure(ctx, actor, issueID)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueResolved,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.IssueStatusChangedPayload{
			OldStatus: domain.IssueStatusInProgress,
			NewStatus: domain.IssueStatusResolved,
		},
	})
	return issue, nil
}

func (s *IssueService) classifyResolveFailure(ctx context.Context, actor domain.Actor, issueID string) error {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return mapIssueError(err, issueID)
	}
	if issue.Status != domain.IssueStatusInProgress {
		return apperrors.NewInvalidTransition("only in-progress issues can be resolved",
			map[string]any{"status": issue.Status})
	}
	return apperrors.NewForbidden("only the assigned provider can resolve this issue")
}

// Reject moves any non-terminal issue to rejected. Moderator/admin only.
func (s *IssueService) Reject(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	if !actor.Role.CanModerate() {
		return nil, apperrors.NewForbidden("only moderators can reject issues")
	}
	oldStatus := domain.IssueStatus("")
	if current, err := s.issues.GetByID(ctx, issueID); err == nil {
		oldStatus = current.Status
	}
	issue, err := s.issues.Reject(ctx, issueID)
	if err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return nil, s.classifyRejectFailure(ctx, issueID)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueRejected,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.IssueStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.IssueStatusRejected,
		},
	})
	return issue, nil
}

func (s *IssueService) classifyRejectFailure(ctx context.Context, issueID string) error {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return mapIssueError(err, issueID)
	}
	return apperrors.NewInvalidTransition("issue is already in a terminal state",
		map[string]any{"status": issue.Status})
}

// ToggleLike flips the actor's membership in the issue's likes set. Two
// toggles return the set to its original state. Any authenticated actor.
func (s *IssueService) ToggleLike(ctx context.Context, actor domain.Actor, issueID string) (*LikeResult, error) {
	liked, count, err := s.issues.ToggleLike(ctx, issueID, actor.ID)
	if err != nil {
		return nil, mapIssueError(err, issueID)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueLiked,
		IssueID: issueID,
		Actor:   eventActor(actor),
		Payload: events.IssueLikedPayload{Liked: liked, LikesCount: count},
	})
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

// AddPhoto attaches photo metadata to an issue owned by the actor.
func (s *IssueService) AddPhoto(ctx context.Context, actor domain.Actor, issueID, url string) (*domain.IssuePhoto, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperrors.NewValidationError("photo url required", nil)
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, mapIssueError(err, issueID)
	}
	if issue.ReporterID != actor.ID && !actor.Role.CanModerate() {
		return nil, apperrors.NewForbidden("only the reporter can attach photos")
	}
	photo := &domain.IssuePhoto{IssueID: issue.ID, URL: strings.TrimSpace(url)}
	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, apperrors.MapError(err)
	}
	return photo, nil
}

// Photos lists photo metadata for an issue visible to the actor.
func (s *IssueService) Photos(ctx context.Context, actor domain.Actor, issueID string) ([]domain.IssuePhoto, error) {
	if _, err := s.Get(ctx, actor, issueID); err != nil {
		return nil, err
	}
	photos, err := s.photos.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return photos, nil
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{ID: actor.ID, Role: actor.Role}
}

func mapIssueError(err error, issueID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
	}
	return apperrors.MapError(err)
}
