package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/geo"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// deadlineCheckInterval bounds how many issues a geo scan walks between
// context deadline checks.
const deadlineCheckInterval = 256

// QueryService answers "which issues can this actor see, optionally near a
// point" without ever mutating store state.
type QueryService struct {
	issues repository.IssueRepository
	logger *zap.Logger
}

// NewQueryService constructs the service.
func NewQueryService(issues repository.IssueRepository, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{issues: issues, logger: logger}
}

// ListFilter captures caller-supplied list predicates. Near and RadiusKm are
// already parsed; the HTTP layer drops malformed values before they get here.
type ListFilter struct {
	Statuses   []domain.IssueStatus
	Priorities []domain.IssuePriority
	Near       *geo.Point
	RadiusKm   *float64
	Limit      int
	Offset     int
}

// IssueResult wraps an issue with its query-scoped derived distance. The
// distance is present only when a geo filter was active; the stored record
// never carries it.
type IssueResult struct {
	Issue      domain.Issue
	DistanceKm *float64
}

// List returns the issues visible to the actor, nearest-first when a geo
// filter is supplied and newest-first otherwise.
func (s *QueryService) List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]IssueResult, error) {
	if filter.RadiusKm != nil && *filter.RadiusKm < 0 {
		return nil, apperrors.NewValidationError("radius_km must not be negative",
			map[string]any{"radius_km": *filter.RadiusKm})
	}

	repoFilter := repository.IssueFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	switch actor.Role {
	case domain.RoleConsumer:
		reporterID := actor.ID
		repoFilter.ReporterID = &reporterID
	case domain.RoleProvider:
		// a provider without a profession sees nothing, never everything
		if actor.Profession == nil {
			return []IssueResult{}, nil
		}
		category := *actor.Profession
		repoFilter.Category = &category
	case domain.RoleModerator, domain.RoleAdmin:
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}

	if filter.Near == nil {
		issues, err := s.issues.ListWithFilter(ctx, repoFilter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		results := make([]IssueResult, 0, len(issues))
		for _, issue := range issues {
			results = append(results, IssueResult{Issue: issue})
		}
		return results, nil
	}

	// geo scan walks the whole visible set; pagination happens after sorting
	limit := filter.Limit
	offset := filter.Offset
	repoFilter.Limit = -1
	repoFilter.Offset = 0

	issues, err := s.issues.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	results := make([]IssueResult, 0, len(issues))
	for i, issue := range issues {
		if i%deadlineCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, apperrors.NewTimeout("issue geo query")
			}
		}
		if !issue.HasCoordinates() {
			continue
		}
		dist := geo.Distance(*filter.Near, geo.Point{Lat: *issue.Latitude, Lon: *issue.Longitude})
		if filter.RadiusKm != nil && dist > *filter.RadiusKm {
			continue
		}
		d := dist
		results = append(results, IssueResult{Issue: issue, DistanceKm: &d})
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeout("issue geo query")
	}

	sort.Slice(results, func(i, j int) bool {
		if *results[i].DistanceKm == *results[j].DistanceKm {
			return results[i].Issue.ID < results[j].Issue.ID
		}
		return *results[i].DistanceKm < *results[j].DistanceKm
	})
	return paginateResults(results, limit, offset), nil
}

func paginateResults(results []IssueResult, limit, offset int) []IssueResult {
	if limit < 0 {
		return results
	}
	if limit == 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []IssueResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
