package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/geo"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssuesHandler manages issue submission, listing, and lifecycle endpoints.
type IssuesHandler struct {
	issues  *service.IssueService
	queries *service.QueryService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService, queryService *service.QueryService) *IssuesHandler {
	return &IssuesHandler{issues: issueService, queries: queryService}
}

// Create POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.issues.Create(c.UserContext(), principal.Actor, service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueResponse(issue, nil, principal.Actor)})
}

// List GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseIssueQuery(c)
	results, err := h.queries.List(c.UserContext(), principal.Actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.IssueResponse, 0, len(results))
	for i := range results {
		items = append(items, issueResponse(&results[i].Issue, results[i].DistanceKm, principal.Actor))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.issues.Get(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue, nil, principal.Actor)})
}

// ToggleLike POST /issues/:id/like.
func (h *IssuesHandler) ToggleLike(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	result, err := h.issues.ToggleLike(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LikeResponse{Liked: result.Liked, LikesCount: result.LikesCount}})
}

// Claim POST /issues/:id/claim.
func (h *IssuesHandler) Claim(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.issues.Claim(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue, nil, principal.Actor)})
}

// Resolve POST /issues/:id/resolve.
func (h *IssuesHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.issues.Resolve(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue, nil, principal.Actor)})
}

// Reject POST /issues/:id/reject.
func (h *IssuesHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.issues.Reject(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue, nil, principal.Actor)})
}

// AddPhoto POST /issues/:id/photos.
func (h *IssuesHandler) AddPhoto(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddPhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.URL) == "" {
		return apperrors.NewValidationError("url required", nil)
	}
	photo, err := h.issues.AddPhoto(c.UserContext(), principal.Actor, c.Params("id"), req.URL)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": photoResponse(photo)})
}

// Photos GET /issues/:id/photos.
func (h *IssuesHandler) Photos(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	photos, err := h.issues.Photos(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.PhotoResponse, 0, len(photos))
	for i := range photos {
		items = append(items, photoResponse(&photos[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// parseIssueQuery builds the list filter from query params. Malformed geo
// params degrade to an unfiltered query rather than erroring: a bad `near`
// drops the geo filter, a non-numeric `radius_km` drops the radius. A
// negative radius is passed through so the service rejects it explicitly.
func parseIssueQuery(c *fiber.Ctx) service.ListFilter {
	filter := service.ListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.IssueStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.IssuePriority(strings.TrimSpace(part)))
		}
	}
	if nearStr := c.Query("near"); nearStr != "" {
		if point, err := geo.ParsePoint(nearStr); err == nil {
			filter.Near = &point
		}
	}
	if radiusStr := c.Query("radius_km"); radiusStr != "" && filter.Near != nil {
		if radius, err := strconv.ParseFloat(radiusStr, 64); err == nil {
			filter.RadiusKm = &radius
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// issueResponse projects an issue for the given viewer. Anonymous issues
// hide the reporter from everyone except the reporter and moderators.
func issueResponse(issue *domain.Issue, distanceKm *float64, viewer domain.Actor) dto.IssueResponse {
	resp := dto.IssueResponse{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		Status:      issue.Status,
		Priority:    issue.Priority,
		Location:    issue.Location,
		Latitude:    issue.Latitude,
		Longitude:   issue.Longitude,
		AssigneeID:  issue.AssigneeID,
		IsAnonymous: issue.IsAnonymous,
		Feedback:    issue.Feedback,
		LikesCount:  issue.LikesCount,
		DistanceKm:  distanceKm,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
	if !issue.IsAnonymous || issue.ReporterID == viewer.ID || viewer.Role.CanModerate() {
		reporterID := issue.ReporterID
		resp.ReporterID = &reporterID
	}
	return resp
}

func photoResponse(photo *domain.IssuePhoto) dto.PhotoResponse {
	return dto.PhotoResponse{
		ID:         photo.ID,
		IssueID:    photo.IssueID,
		URL:        photo.URL,
		UploadedAt: photo.UploadedAt,
	}
}
