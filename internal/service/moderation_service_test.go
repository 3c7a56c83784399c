package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func TestFlagOncePerActor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Spammy post", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})

	flag, err := f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReasonSpam, "looks fake")
	require.NoError(t, err)
	assert.Equal(t, issue.ID, flag.IssueID)
	assert.False(t, flag.Reviewed)
	require.NotNil(t, flag.Comment)
	assert.Equal(t, "looks fake", *flag.Comment)

	_, err = f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReasonOther, "again")
	requireCode(t, err, "DUPLICATE_FLAG")

	// a different actor may still flag the same issue
	_, err = f.moderation.Flag(ctx, consumer("c3"), issue.ID, domain.FlagReasonSpam, "")
	require.NoError(t, err)
}

func TestFlagConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Contested", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})

	const attempts = 6
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.moderation.Flag(context.Background(), consumer("c2"), issue.ID, domain.FlagReasonSpam, ""); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)
	assert.Len(t, successes, 1)
}

func TestFlagValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Something", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})

	_, err := f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReason("bogus"), "")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.moderation.Flag(ctx, consumer("c2"), "missing-id", domain.FlagReasonSpam, "")
	requireCode(t, err, "NOT_FOUND")
}

func TestListFlaggedModeratorOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Flagged", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})
	_, err := f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReasonInappropriate, "")
	require.NoError(t, err)

	_, err = f.moderation.ListFlagged(ctx, consumer("c2"), nil, 20, 0)
	requireCode(t, err, "FORBIDDEN")

	flagged, err := f.moderation.ListFlagged(ctx, moderator("m1"), nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.NotNil(t, flagged[0].Issue)
	assert.Equal(t, issue.ID, flagged[0].Issue.ID)
}

func TestReviewApprove(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Flagged", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})
	flag, err := f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReasonSpam, "")
	require.NoError(t, err)

	reviewed, err := f.moderation.Review(ctx, moderator("m1"), flag.ID, domain.ReviewApprove)
	require.NoError(t, err)
	assert.True(t, reviewed.Reviewed)

	pending := false
	flagged, err := f.moderation.ListFlagged(ctx, moderator("m1"), &pending, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestReviewRejectDiscardsFlag(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Flagged", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})
	flag, err := f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReasonSpam, "")
	require.NoError(t, err)

	_, err = f.moderation.Review(ctx, moderator("m1"), flag.ID, domain.ReviewReject)
	require.NoError(t, err)

	flagged, err := f.moderation.ListFlagged(ctx, moderator("m1"), nil, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, flagged)

	// issue itself is untouched
	_, err = f.issues.Get(ctx, moderator("m1"), issue.ID)
	require.NoError(t, err)
}

func TestReviewDeleteCascades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Abusive", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})
	_, err := f.issues.AddPhoto(ctx, consumer("c1"), issue.ID, "https://cdn.example.com/p.jpg")
	require.NoError(t, err)
	flag, err := f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReasonInappropriate, "")
	require.NoError(t, err)
	_, err = f.moderation.Flag(ctx, consumer("c3"), issue.ID, domain.FlagReasonSpam, "")
	require.NoError(t, err)

	_, err = f.moderation.Review(ctx, moderator("m1"), flag.ID, domain.ReviewDelete)
	require.NoError(t, err)

	_, err = f.issues.Get(ctx, moderator("m1"), issue.ID)
	requireCode(t, err, "NOT_FOUND")

	flagged, err := f.moderation.ListFlagged(ctx, moderator("m1"), nil, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, flagged)

	photos, err := f.store.Photos().ListByIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestReviewGuards(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	issue := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Flagged", Description: "d", Category: categoryLabel(domain.CategoryOther),
	})
	flag, err := f.moderation.Flag(ctx, consumer("c2"), issue.ID, domain.FlagReasonSpam, "")
	require.NoError(t, err)

	_, err = f.moderation.Review(ctx, consumer("c2"), flag.ID, domain.ReviewApprove)
	requireCode(t, err, "FORBIDDEN")

	_, err = f.moderation.Review(ctx, moderator("m1"), flag.ID, domain.ReviewDecision("purge"))
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.moderation.Review(ctx, moderator("m1"), "missing-id", domain.ReviewApprove)
	requireCode(t, err, "NOT_FOUND")
}
