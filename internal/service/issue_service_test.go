package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/classifier"
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func TestCreateIssueClassifiesCategory(t *testing.T) {
	f := newFixture(t, classifier.Func(func(_ context.Context, _ string) (string, error) {
		return "road", nil
	}))

	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Pothole on main street",
		Description: "Deep pothole near the intersection",
	})

	assert.Equal(t, domain.CategoryRoad, issue.Category)
	assert.Equal(t, domain.IssueStatusPending, issue.Status)
	assert.Equal(t, domain.IssuePriorityMedium, issue.Priority)
	assert.Equal(t, "c1", issue.ReporterID)
	assert.NotEmpty(t, issue.ID)
}

func TestCreateIssueUnknownClassifierLabel(t *testing.T) {
	f := newFixture(t, classifier.Func(func(_ context.Context, _ string) (string, error) {
		return "volcano", nil
	}))

	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Strange problem",
		Description: "Hard to categorize",
	})

	assert.Equal(t, domain.CategoryOther, issue.Category)
}

func TestCreateIssueClassifierFailure(t *testing.T) {
	f := newFixture(t, classifier.Func(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("connection refused")
	}))

	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Broken street light",
		Description: "Light flickers all night",
	})

	assert.Equal(t, domain.CategoryOther, issue.Category)
}

func TestCreateIssueSubmittedCategoryWins(t *testing.T) {
	f := newFixture(t, classifier.Func(func(_ context.Context, _ string) (string, error) {
		t.Fatal("classifier must not run when a category was submitted")
		return "", nil
	}))

	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Open drain",
		Description: "Drain cover missing",
		Category:    categoryLabel(domain.CategoryDrainage),
	})

	assert.Equal(t, domain.CategoryDrainage, issue.Category)
}

func TestCreateIssueValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.issues.Create(ctx, consumer("c1"), IssueCreateInput{Title: "  ", Description: "x"})
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.issues.Create(ctx, consumer("c1"), IssueCreateInput{
		Title:       "Partial coordinates",
		Description: "Only latitude given",
		Latitude:    float(12.9),
	})
	requireCode(t, err, "VALIDATION_FAILED")

	bad := "landslide"
	_, err = f.issues.Create(ctx, consumer("c1"), IssueCreateInput{
		Title:       "Bad category",
		Description: "desc",
		Category:    &bad,
	})
	requireCode(t, err, "VALIDATION_FAILED")

	badPriority := domain.IssuePriority("extreme")
	_, err = f.issues.Create(ctx, consumer("c1"), IssueCreateInput{
		Title:       "Bad priority",
		Description: "desc",
		Priority:    &badPriority,
	})
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Garbage pile",
		Description: "Uncollected for a week",
		Category:    categoryLabel(domain.CategoryGarbage),
	})

	got, err := f.issues.Get(ctx, consumer("c1"), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.ID, got.ID)

	_, err = f.issues.Get(ctx, consumer("c2"), issue.ID)
	requireCode(t, err, "FORBIDDEN")

	_, err = f.issues.Get(ctx, provider("p1", domain.CategoryGarbage), issue.ID)
	require.NoError(t, err)

	_, err = f.issues.Get(ctx, provider("p2", domain.CategoryRoad), issue.ID)
	requireCode(t, err, "FORBIDDEN")

	_, err = f.issues.Get(ctx, moderator("m1"), issue.ID)
	require.NoError(t, err)

	_, err = f.issues.Get(ctx, consumer("c1"), "missing-id")
	requireCode(t, err, "NOT_FOUND")
}

func TestClaimSingleWinner(t *testing.T) {
	f := newFixture(t, nil)
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Water leak",
		Description: "Pipe burst on 5th avenue",
		Category:    categoryLabel(domain.CategoryWater),
	})

	const claimants = 8
	var wg sync.WaitGroup
	winners := make(chan string, claimants)
	conflicts := make(chan error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		providerID := fmt.Sprintf("p%d", i)
		go func() {
			defer wg.Done()
			_, err := f.issues.Claim(context.Background(), provider(providerID, domain.CategoryWater), issue.ID)
			if err != nil {
				conflicts <- err
				return
			}
			winners <- providerID
		}()
	}
	wg.Wait()
	close(winners)
	close(conflicts)

	require.Len(t, winners, 1)
	require.Len(t, conflicts, claimants-1)
	for err := range conflicts {
		requireCode(t, err, "CONFLICT")
	}

	got, err := f.issues.Get(context.Background(), moderator("m1"), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusInProgress, got.Status)
	require.NotNil(t, got.AssigneeID)
}

func TestClaimGuards(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Water leak",
		Description: "desc",
		Category:    categoryLabel(domain.CategoryWater),
	})

	_, err := f.issues.Claim(ctx, consumer("c2"), issue.ID)
	requireCode(t, err, "FORBIDDEN")

	_, err = f.issues.Claim(ctx, provider("p1", domain.CategoryWater), issue.ID)
	require.NoError(t, err)

	// resolved issues cannot be claimed again
	_, err = f.issues.Resolve(ctx, provider("p1", domain.CategoryWater), issue.ID)
	require.NoError(t, err)
	_, err = f.issues.Claim(ctx, provider("p2", domain.CategoryWater), issue.ID)
	requireCode(t, err, "CONFLICT")
}

func TestResolveGuards(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Transformer sparking",
		Description: "desc",
		Category:    categoryLabel(domain.CategoryElectricity),
	})

	// not in progress yet
	_, err := f.issues.Resolve(ctx, provider("p1", domain.CategoryElectricity), issue.ID)
	requireCode(t, err, "INVALID_TRANSITION")

	_, err = f.issues.Claim(ctx, provider("p1", domain.CategoryElectricity), issue.ID)
	require.NoError(t, err)

	// only the assignee resolves
	_, err = f.issues.Resolve(ctx, provider("p2", domain.CategoryElectricity), issue.ID)
	requireCode(t, err, "FORBIDDEN")

	resolved, err := f.issues.Resolve(ctx, provider("p1", domain.CategoryElectricity), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusResolved, resolved.Status)

	// terminal states stay terminal
	_, err = f.issues.Resolve(ctx, provider("p1", domain.CategoryElectricity), issue.ID)
	requireCode(t, err, "INVALID_TRANSITION")
}

func TestRejectLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Noise complaint",
		Description: "desc",
		Category:    categoryLabel(domain.CategoryPollution),
	})

	_, err := f.issues.Reject(ctx, consumer("c1"), issue.ID)
	requireCode(t, err, "FORBIDDEN")

	rejected, err := f.issues.Reject(ctx, moderator("m1"), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusRejected, rejected.Status)

	_, err = f.issues.Reject(ctx, moderator("m1"), issue.ID)
	requireCode(t, err, "INVALID_TRANSITION")
}

func TestToggleLikeRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Overflowing bin",
		Description: "desc",
		Category:    categoryLabel(domain.CategoryGarbage),
	})

	liked, err := f.issues.ToggleLike(ctx, consumer("c2"), issue.ID)
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikesCount)

	unliked, err := f.issues.ToggleLike(ctx, consumer("c2"), issue.ID)
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.Equal(t, 0, unliked.LikesCount)

	_, err = f.issues.ToggleLike(ctx, consumer("c2"), "missing-id")
	requireCode(t, err, "NOT_FOUND")
}

func TestAddPhotoOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title:       "Flooded underpass",
		Description: "desc",
		Category:    categoryLabel(domain.CategoryDrainage),
	})

	photo, err := f.issues.AddPhoto(ctx, consumer("c1"), issue.ID, "https://cdn.example.com/p1.jpg")
	require.NoError(t, err)
	assert.Equal(t, issue.ID, photo.IssueID)

	_, err = f.issues.AddPhoto(ctx, consumer("c2"), issue.ID, "https://cdn.example.com/p2.jpg")
	requireCode(t, err, "FORBIDDEN")

	_, err = f.issues.AddPhoto(ctx, consumer("c1"), issue.ID, "   ")
	requireCode(t, err, "VALIDATION_FAILED")

	photos, err := f.issues.Photos(ctx, consumer("c1"), issue.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
}
