package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
)

type CheckinsHandler struct {
	DB         *gorm.DB
	Checkins   *services.CheckinService
	Members    *services.MembershipService
	Activities *services.ActivityService
}

func NewCheckinsHandler(db *gorm.DB, checkins *services.CheckinService, members *services.MembershipService, activities *services.ActivityService) *CheckinsHandler {
	return &CheckinsHandler{DB: db, Checkins: checkins, Members: members, Activities: activities}
}

type createCheckinRequest struct {
	Message string `json:"message"`
}

func (h *CheckinsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	project, err := findProject(h.DB, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	var req createCheckinRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return utils.Error(c, fiber.StatusBadRequest, "message is required")
	}

	checkin, err := h.Checkins.Create(c.Context(), project, currentUser.ID, message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotCheckedOut):
			return utils.Error(c, fiber.StatusConflict, "project is not checked out by you")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed creating checkin")
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "checkin_created", map[string]interface{}{
		"project_id": project.ID.String(),
		"checkin_id": checkin.ID.String(),
		"version":    checkin.Version,
	})

	// Let the owner know a collaborator checked in.
	h.Activities.RecordAsync(services.ActivityEntry{
		UserID:       project.OwnerID,
		ActorID:      currentUser.ID,
		Action:       "checkin.created",
		ResourceType: "project",
		ResourceID:   &project.ID,
		ResourceName: project.Name,
		Message:      message,
	})

	return utils.Success(c, fiber.StatusCreated, checkin)
}

func (h *CheckinsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	project, err := findProject(h.DB, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if !h.Members.CanRead(c.Context(), project, currentUser.ID) {
		return utils.Error(c, fiber.StatusForbidden, "project access denied")
	}

	checkins, err := h.Checkins.List(c.Context(), project.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing checkins")
	}

	return utils.Success(c, fiber.StatusOK, checkins)
}
