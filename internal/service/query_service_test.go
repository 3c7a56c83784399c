package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/geo"
)

// kmToLatDegrees converts a north-south distance to a latitude offset so test
// points land at known haversine distances from the origin.
func kmToLatDegrees(km float64) float64 {
	return km / 111.194926
}

func (f *fixture) createIssueAt(t *testing.T, actor domain.Actor, title string, category domain.IssueCategory, lat, lon float64) *domain.Issue {
	t.Helper()
	return f.createIssue(t, actor, IssueCreateInput{
		Title:       title,
		Description: "placed for distance checks",
		Category:    categoryLabel(category),
		Latitude:    float(lat),
		Longitude:   float(lon),
	})
}

func TestListConsumerSeesOnlyOwn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	mine := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Mine", Description: "d", Category: categoryLabel(domain.CategoryRoad),
	})
	f.createIssue(t, consumer("c2"), IssueCreateInput{
		Title: "Theirs", Description: "d", Category: categoryLabel(domain.CategoryRoad),
	})

	results, err := f.queries.List(ctx, consumer("c1"), ListFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mine.ID, results[0].Issue.ID)
	assert.Nil(t, results[0].DistanceKm)
}

func TestListProviderScopedToProfession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	road := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Pothole", Description: "d", Category: categoryLabel(domain.CategoryRoad),
	})
	f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Leak", Description: "d", Category: categoryLabel(domain.CategoryWater),
	})

	results, err := f.queries.List(ctx, provider("p1", domain.CategoryRoad), ListFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, road.ID, results[0].Issue.ID)

	// a provider with no profession sees nothing, never everything
	bare := domain.Actor{ID: "p2", Role: domain.RoleProvider}
	results, err = f.queries.List(ctx, bare, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListModeratorSeesAll(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "One", Description: "d", Category: categoryLabel(domain.CategoryRoad),
	})
	f.createIssue(t, consumer("c2"), IssueCreateInput{
		Title: "Two", Description: "d", Category: categoryLabel(domain.CategoryWater),
	})

	results, err := f.queries.List(ctx, moderator("m1"), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestListDefaultOrderNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	first := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Older", Description: "d", Category: categoryLabel(domain.CategoryRoad),
	})
	time.Sleep(2 * time.Millisecond)
	second := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Newer", Description: "d", Category: categoryLabel(domain.CategoryRoad),
	})

	results, err := f.queries.List(ctx, consumer("c1"), ListFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second.ID, results[0].Issue.ID)
	assert.Equal(t, first.ID, results[1].Issue.ID)
}

func TestListGeoOrderingAndRadius(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	mod := moderator("m1")

	far := f.createIssueAt(t, consumer("c1"), "5.1km", domain.CategoryRoad, kmToLatDegrees(5.1), 0)
	near := f.createIssueAt(t, consumer("c1"), "2.1km", domain.CategoryRoad, kmToLatDegrees(2.1), 0)
	mid := f.createIssueAt(t, consumer("c1"), "4.9km", domain.CategoryRoad, kmToLatDegrees(4.9), 0)
	// no coordinates: invisible to geo queries
	f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "No coords", Description: "d", Category: categoryLabel(domain.CategoryRoad),
	})

	origin := geo.Point{Lat: 0, Lon: 0}
	results, err := f.queries.List(ctx, mod, ListFilter{Near: &origin, RadiusKm: float(5.0)})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, near.ID, results[0].Issue.ID)
	assert.Equal(t, mid.ID, results[1].Issue.ID)
	require.NotNil(t, results[0].DistanceKm)
	assert.InDelta(t, 2.1, *results[0].DistanceKm, 0.01)
	assert.InDelta(t, 4.9, *results[1].DistanceKm, 0.01)

	// without a radius all located issues return, nearest first
	results, err = f.queries.List(ctx, mod, ListFilter{Near: &origin})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, far.ID, results[2].Issue.ID)
}

func TestListGeoRadiusBoundaryIncluded(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	lat := kmToLatDegrees(5.0)
	issue := f.createIssueAt(t, consumer("c1"), "boundary", domain.CategoryRoad, lat, 0)

	origin := geo.Point{Lat: 0, Lon: 0}
	exact := geo.Distance(origin, geo.Point{Lat: lat, Lon: 0})

	results, err := f.queries.List(ctx, moderator("m1"), ListFilter{Near: &origin, RadiusKm: &exact})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, issue.ID, results[0].Issue.ID)
}

func TestListGeoPagination(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		f.createIssueAt(t, consumer("c1"), "spaced", domain.CategoryRoad, kmToLatDegrees(float64(i)), 0)
	}

	origin := geo.Point{Lat: 0, Lon: 0}
	page, err := f.queries.List(ctx, moderator("m1"), ListFilter{Near: &origin, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.InDelta(t, 3.0, *page[0].DistanceKm, 0.01)
	assert.InDelta(t, 4.0, *page[1].DistanceKm, 0.01)
}

func TestListNegativeRadiusRejected(t *testing.T) {
	f := newFixture(t, nil)
	origin := geo.Point{Lat: 0, Lon: 0}
	_, err := f.queries.List(context.Background(), moderator("m1"), ListFilter{Near: &origin, RadiusKm: float(-1)})
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestListGeoCanceledContext(t *testing.T) {
	f := newFixture(t, nil)
	f.createIssueAt(t, consumer("c1"), "somewhere", domain.CategoryRoad, kmToLatDegrees(1), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	origin := geo.Point{Lat: 0, Lon: 0}
	_, err := f.queries.List(ctx, moderator("m1"), ListFilter{Near: &origin})
	requireCode(t, err, "TIMEOUT")
}

func TestListStatusFilter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	open := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Open", Description: "d", Category: categoryLabel(domain.CategoryWater),
	})
	claimed := f.createIssue(t, consumer("c1"), IssueCreateInput{
		Title: "Claimed", Description: "d", Category: categoryLabel(domain.CategoryWater),
	})
	_, err := f.issues.Claim(ctx, provider("p1", domain.CategoryWater), claimed.ID)
	require.NoError(t, err)

	results, err := f.queries.List(ctx, consumer("c1"), ListFilter{
		Statuses: []domain.IssueStatus{domain.IssueStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, open.ID, results[0].Issue.ID)
}
