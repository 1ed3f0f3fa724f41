package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
)

type MembersHandler struct {
	DB         *gorm.DB
	Members    *services.MembershipService
	Activities *services.ActivityService
}

func NewMembersHandler(db *gorm.DB, members *services.MembershipService, activities *services.ActivityService) *MembersHandler {
	return &MembersHandler{DB: db, Members: members, Activities: activities}
}

type inviteMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (h *MembersHandler) Invite(c *fiber.Ctx) error {
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

	var req inviteMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	targetID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid userId")
	}

	role := models.MemberRoleCollaborator
	if req.Role != "" {
		parsed, ok := parseMemberRole(req.Role)
		if !ok {
			return utils.Error(c, fiber.StatusBadRequest, "invalid role")
		}
		role = parsed
	}

	member, err := h.Members.Invite(c.Context(), project, currentUser.ID, targetID, role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotOwner):
			return utils.Error(c, fiber.StatusForbidden, "only the project owner can invite members")
		case errors.Is(err, services.ErrUserNotFound):
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrAlreadyMember):
			return utils.Error(c, fiber.StatusConflict, "user is already a member")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed inviting member")
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "member_invited", map[string]interface{}{
		"project_id": project.ID.String(),
		"user_id":    targetID.String(),
		"role":       string(role),
	})

	h.Activities.RecordAsync(services.ActivityEntry{
		UserID:       targetID,
		ActorID:      currentUser.ID,
		Action:       "member.invited",
		ResourceType: "project",
		ResourceID:   &project.ID,
		ResourceName: project.Name,
	})

	return utils.Success(c, fiber.StatusCreated, member)
}

func (h *MembersHandler) List(c *fiber.Ctx) error {
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

	members, err := h.Members.List(c.Context(), project.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing members")
	}

	return utils.Success(c, fiber.StatusOK, members)
}

func (h *MembersHandler) Remove(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	targetID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	project, err := findProject(h.DB, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if err := h.Members.Remove(c.Context(), project, currentUser.ID, targetID); err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return utils.Error(c, fiber.StatusNotFound, "member not found")
		case errors.Is(err, services.ErrNotPermitted):
			return utils.Error(c, fiber.StatusForbidden, "not permitted to remove this member")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed removing member")
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "member_removed", map[string]interface{}{
		"project_id": project.ID.String(),
		"user_id":    targetID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}
