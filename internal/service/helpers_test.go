package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/classifier"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

type fixture struct {
	store      *repository.MemoryStore
	dispatcher events.Dispatcher
	issues     *IssueService
	queries    *QueryService
	moderation *ModerationService
}

func newFixture(t *testing.T, cls classifier.Classifier) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()

	issueService := NewIssueService(IssueDependencies{
		IssueRepo:  store.Issues(),
		PhotoRepo:  store.Photos(),
		Classifier: cls,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	moderationService := NewModerationService(ModerationDependencies{
		IssueRepo:  store.Issues(),
		FlagRepo:   store.Flags(),
		PhotoRepo:  store.Photos(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		issues:     issueService,
		queries:    NewQueryService(store.Issues(), logger),
		moderation: moderationService,
	}
}

func consumer(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleConsumer}
}

func provider(id string, profession domain.IssueCategory) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleProvider, Profession: &profession}
}

func moderator(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleModerator}
}

func (f *fixture) createIssue(t *testing.T, actor domain.Actor, input IssueCreateInput) *domain.Issue {
	t.Helper()
	issue, err := f.issues.Create(context.Background(), actor, input)
	require.NoError(t, err)
	return issue
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code, "unexpected error code: %v", err)
}

func categoryLabel(c domain.IssueCategory) *string {
	s := string(c)
	return &s
}

func float(v float64) *float64 { return &v }
