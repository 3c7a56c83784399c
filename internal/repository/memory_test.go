package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func newTestIssue(t *testing.T, repo IssueRepository, reporterID string, category domain.IssueCategory) *domain.Issue {
	t.Helper()
	issue := &domain.Issue{
		Title:       "Broken thing",
		Description: "Something is broken",
		Category:    category,
		Status:      domain.IssueStatusPending,
		Priority:    domain.IssuePriorityMedium,
		ReporterID:  reporterID,
	}
	require.NoError(t, repo.Create(context.Background(), issue))
	return issue
}

func TestMemoryClaimExclusivity(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Issues()
	issue := newTestIssue(t, repo, "consumer-1", domain.CategoryRoad)

	const attempts = 8
	var wg sync.WaitGroup
	winners := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		providerID := string(rune('a' + i))
		go func() {
			defer wg.Done()
			if _, err := repo.Claim(context.Background(), issue.ID, providerID); err == nil {
				winners <- providerID
			}
		}()
	}
	wg.Wait()
	close(winners)

	var winnerIDs []string
	for id := range winners {
		winnerIDs = append(winnerIDs, id)
	}
	require.Len(t, winnerIDs, 1)

	got, err := repo.GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusInProgress, got.Status)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, winnerIDs[0], *got.AssigneeID)
}

func TestMemoryClaimGuards(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Issues()

	issue := newTestIssue(t, repo, "consumer-1", domain.CategoryWater)
	_, err := repo.Claim(context.Background(), issue.ID, "provider-1")
	require.NoError(t, err)

	_, err = repo.Claim(context.Background(), issue.ID, "provider-2")
	assert.ErrorIs(t, err, ErrNoTransition)

	_, err = repo.Claim(context.Background(), "missing-id", "provider-1")
	assert.ErrorIs(t, err, ErrNoTransition)
}

func TestMemoryResolveGuards(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Issues()
	ctx := context.Background()

	issue := newTestIssue(t, repo, "consumer-1", domain.CategoryWater)

	// not in progress yet
	_, err := repo.Resolve(ctx, issue.ID, "provider-1")
	assert.ErrorIs(t, err, ErrNoTransition)

	_, err = repo.Claim(ctx, issue.ID, "provider-1")
	require.NoError(t, err)

	// wrong assignee
	_, err = repo.Resolve(ctx, issue.ID, "provider-2")
	assert.ErrorIs(t, err, ErrNoTransition)

	resolved, err := repo.Resolve(ctx, issue.ID, "provider-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusResolved, resolved.Status)

	// terminal states stay put
	_, err = repo.Reject(ctx, issue.ID)
	assert.ErrorIs(t, err, ErrNoTransition)
}

func TestMemoryToggleLikeIdempotent(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Issues()
	ctx := context.Background()
	issue := newTestIssue(t, repo, "consumer-1", domain.CategoryGarbage)

	liked, count, err := repo.ToggleLike(ctx, issue.ID, "consumer-2")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = repo.ToggleLike(ctx, issue.ID, "consumer-2")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
}

func TestMemoryDuplicateFlagConcurrent(t *testing.T) {
	store := NewMemoryStore()
	issue := newTestIssue(t, store.Issues(), "consumer-1", domain.CategoryRoad)
	flags := store.Flags()

	const attempts = 8
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flag := &domain.FlagReport{
				IssueID:    issue.ID,
				ReporterID: "consumer-2",
				Reason:     domain.FlagReasonSpam,
			}
			if err := flags.Create(context.Background(), flag); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	var count int
	for range successes {
		count++
	}
	assert.Equal(t, 1, count)

	stored, err := flags.List(context.Background(), nil, 100, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMemoryDeleteIssueCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	issues := store.Issues()
	flags := store.Flags()
	photos := store.Photos()

	issue := newTestIssue(t, issues, "consumer-1", domain.CategoryRoad)
	require.NoError(t, flags.Create(ctx, &domain.FlagReport{
		IssueID: issue.ID, ReporterID: "consumer-2", Reason: domain.FlagReasonSpam,
	}))
	require.NoError(t, photos.Create(ctx, &domain.IssuePhoto{IssueID: issue.ID, URL: "http://x/p.jpg"}))

	require.NoError(t, issues.Delete(ctx, issue.ID))

	_, err := issues.GetByID(ctx, issue.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	remaining, err := flags.List(ctx, nil, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	pics, err := photos.ListByIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, pics)

	// a fresh flag on a new issue by the same reporter still works
	other := newTestIssue(t, issues, "consumer-1", domain.CategoryRoad)
	assert.NoError(t, flags.Create(ctx, &domain.FlagReport{
		IssueID: other.ID, ReporterID: "consumer-2", Reason: domain.FlagReasonSpam,
	}))
}

func TestMemoryListFilter(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Issues()
	ctx := context.Background()

	a := newTestIssue(t, repo, "consumer-1", domain.CategoryRoad)
	newTestIssue(t, repo, "consumer-2", domain.CategoryWater)
	newTestIssue(t, repo, "consumer-2", domain.CategoryRoad)

	reporter := "consumer-1"
	mine, err := repo.ListWithFilter(ctx, IssueFilter{ReporterID: &reporter, Limit: -1})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	road := domain.CategoryRoad
	roads, err := repo.ListWithFilter(ctx, IssueFilter{Category: &road, Limit: -1})
	require.NoError(t, err)
	assert.Len(t, roads, 2)
}
