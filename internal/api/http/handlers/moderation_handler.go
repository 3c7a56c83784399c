package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// ModerationHandler manages flagging and flag review endpoints.
type ModerationHandler struct {
	moderation *service.ModerationService
}

// NewModerationHandler constructs handler.
func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderationService}
}

// Flag POST /issues/:id/flags.
func (h *ModerationHandler) Flag(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	flag, err := h.moderation.Flag(c.UserContext(), principal.Actor, c.Params("id"), req.Reason, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": flagResponse(flag)})
}

// ListFlagged GET /moderation/flags.
func (h *ModerationHandler) ListFlagged(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var reviewed *bool
	if reviewedStr := c.Query("reviewed"); reviewedStr != "" {
		if parsed, err := strconv.ParseBool(reviewedStr); err == nil {
			reviewed = &parsed
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	flagged, err := h.moderation.ListFlagged(c.UserContext(), principal.Actor, reviewed, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}

	items := make([]dto.FlaggedIssueResponse, 0, len(flagged))
	for i := range flagged {
		item := dto.FlaggedIssueResponse{Flag: flagResponse(&flagged[i].Flag)}
		if flagged[i].Issue != nil {
			resp := issueResponse(flagged[i].Issue, nil, principal.Actor)
			item.Issue = &resp
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}

// Review POST /moderation/flags/:id/review.
func (h *ModerationHandler) Review(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReviewFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	flag, err := h.moderation.Review(c.UserContext(), principal.Actor, c.Params("id"), req.Decision)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": flagResponse(flag)})
}

func flagResponse(flag *domain.FlagReport) dto.FlagResponse {
	return dto.FlagResponse{
		ID:         flag.ID,
		IssueID:    flag.IssueID,
		ReporterID: flag.ReporterID,
		Reason:     flag.Reason,
		Comment:    flag.Comment,
		Reviewed:   flag.Reviewed,
		CreatedAt:  flag.CreatedAt,
	}
}
