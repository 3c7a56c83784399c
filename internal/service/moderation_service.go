package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// ModerationService tracks flag reports and their review. The uniqueness of
// (issue, reporter) flags is enforced by the storage layer, so concurrent
// duplicate submissions cannot both succeed.
type ModerationService struct {
	issues     repository.IssueRepository
	flags      repository.FlagRepository
	photos     repository.PhotoRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ModerationDependencies bundles collaborators for the moderation service.
type ModerationDependencies struct {
	IssueRepo  repository.IssueRepository
	FlagRepo   repository.FlagRepository
	PhotoRepo  repository.PhotoRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// FlaggedIssue pairs a flag with the issue it targets for review listings.
type FlaggedIssue struct {
	Flag  domain.FlagReport
	Issue *domain.Issue
}

// NewModerationService constructs the service.
func NewModerationService(deps ModerationDependencies) *ModerationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{
		issues:     deps.IssueRepo,
		flags:      deps.FlagRepo,
		photos:     deps.PhotoRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Flag files a moderation report against an issue. Any authenticated actor
// may flag; a second flag by the same actor on the same issue is rejected.
func (s *ModerationService) Flag(ctx context.Context, actor domain.Actor, issueID string, reason domain.FlagReason, comment string) (*domain.FlagReport, error) {
	if !domain.ValidFlagReason(reason) {
		return nil, apperrors.NewValidationError("flag reason required", map[string]any{"reason": reason})
	}
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, mapIssueError(err, issueID)
	}

	flag := &domain.FlagReport{
		IssueID:    issueID,
		ReporterID: actor.ID,
		Reason:     reason,
	}
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		flag.Comment = &trimmed
	}
	if err := s.flags.Create(ctx, flag); err != nil {
		if errors.Is(err, repository.ErrDuplicateFlag) {
			return nil, apperrors.NewDuplicateFlag(map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueFlagged,
		IssueID: issueID,
		Actor:   eventActor(actor),
		Payload: events.IssueFlaggedPayload{FlagID: flag.ID, Reason: flag.Reason},
	})
	return flag, nil
}

// ListFlagged returns flags awaiting review together with their issues.
// Moderator/admin only.
func (s *ModerationService) ListFlagged(ctx context.Context, actor domain.Actor, reviewed *bool, limit, offset int) ([]FlaggedIssue, error) {
	if !actor.Role.CanModerate() {
		return nil, apperrors.NewForbidden("moderator role required")
	}
	flags, err := s.flags.List(ctx, reviewed, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]FlaggedIssue, 0, len(flags))
	for _, flag := range flags {
		entry := FlaggedIssue{Flag: flag}
		if issue, err := s.issues.GetByID(ctx, flag.IssueID); err == nil {
			entry.Issue = issue
		}
		result = append(result, entry)
	}
	return result, nil
}

// Review applies a moderator decision to a flag:
// approve marks it reviewed, reject discards the flag, delete removes the
// flagged issue with all of its flags and photos.
func (s *ModerationService) Review(ctx context.Context, actor domain.Actor, flagID string, decision domain.ReviewDecision) (*domain.FlagReport, error) {
	if !actor.Role.CanModerate() {
		return nil, apperrors.NewForbidden("moderator role required")
	}
	if !domain.ValidReviewDecision(decision) {
		return nil, apperrors.NewValidationError("unknown review decision", map[string]any{"decision": decision})
	}

	flag, err := s.flags.GetByID(ctx, flagID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("flag", map[string]any{"flag_id": flagID})
		}
		return nil, apperrors.MapError(err)
	}

	switch decision {
	case domain.ReviewApprove:
		flag, err = s.flags.MarkReviewed(ctx, flagID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	case domain.ReviewReject:
		if err := s.flags.Delete(ctx, flagID); err != nil {
			return nil, apperrors.MapError(err)
		}
	case domain.ReviewDelete:
		if err := s.deleteIssueCascade(ctx, flag.IssueID); err != nil {
			return nil, err
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventFlagReviewed,
		IssueID: flag.IssueID,
		Actor:   eventActor(actor),
		Payload: events.FlagReviewedPayload{FlagID: flag.ID, Decision: decision},
	})
	return flag, nil
}

// deleteIssueCascade removes an issue and its dependents. Postgres cascades
// via foreign keys; the explicit dependent deletes keep the memory store in
// step and are harmless no-ops when the rows are already gone.
func (s *ModerationService) deleteIssueCascade(ctx context.Context, issueID string) error {
	if err := s.issues.Delete(ctx, issueID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.MapError(err)
	}
	if err := s.flags.DeleteByIssue(ctx, issueID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.photos.DeleteByIssue(ctx, issueID); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("issue deleted by moderation", zap.String("issue_id", issueID))
	return nil
}

func (s *ModerationService) publishEvent(ctx context.Context, event events.Event) {
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
