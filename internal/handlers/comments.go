package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
)

type CommentsHandler struct {
	DB         *gorm.DB
	Members    *services.MembershipService
	Activities *services.ActivityService
}

func NewCommentsHandler(db *gorm.DB, members *services.MembershipService, activities *services.ActivityService) *CommentsHandler {
	return &CommentsHandler{DB: db, Members: members, Activities: activities}
}

type createCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentID"`
}

func (h *CommentsHandler) Create(c *fiber.Ctx) error {
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

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		parsed, parseErr := parseUUID(*req.ParentID)
		if parseErr != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid parentID")
		}

		var parent models.Comment
		if err := h.DB.First(&parent, "id = ?", parsed).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.Error(c, fiber.StatusNotFound, "parent comment not found")
			}
			return utils.Error(c, fiber.StatusInternalServerError, "failed loading parent comment")
		}
		// Replies stay inside the thread they started in.
		if parent.ProjectID != project.ID {
			return utils.Error(c, fiber.StatusBadRequest, "parent comment belongs to another project")
		}
		parentID = &parsed
	}

	comment := models.Comment{
		ProjectID: project.ID,
		UserID:    currentUser.ID,
		Content:   content,
		ParentID:  parentID,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating comment")
	}

	logger.InfoWithUser(currentUser.ID.String(), "comment_created", map[string]interface{}{
		"project_id": project.ID.String(),
		"comment_id": comment.ID.String(),
		"is_reply":   parentID != nil,
	})

	h.Activities.RecordAsync(services.ActivityEntry{
		UserID:       project.OwnerID,
		ActorID:      currentUser.ID,
		Action:       "comment.created",
		ResourceType: "project",
		ResourceID:   &project.ID,
		ResourceName: project.Name,
	})

	comment.User = *currentUser
	return utils.Success(c, fiber.StatusCreated, comment)
}

// List returns top-level comments newest first with one level of
// replies preloaded; deeper nesting is resolved client-side.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
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

	var comments []models.Comment
	err = h.DB.Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.User").
		Where("project_id = ? AND parent_id IS NULL", project.ID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing comments")
	}

	return utils.Success(c, fiber.StatusOK, comments)
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	commentID, err := parseUUID(c.Params("commentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "comment not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading comment")
	}

	if comment.UserID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the author can edit a comment")
	}

	var req updateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return utils.Error(c, fiber.StatusBadRequest, "content is required")
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"content":   content,
		"edited":    true,
		"edited_at": now,
	}
	if err := h.DB.Model(&comment).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating comment")
	}

	comment.Content = content
	comment.Edited = true
	comment.EditedAt = &now

	return utils.Success(c, fiber.StatusOK, comment)
}

func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	commentID, err := parseUUID(c.Params("commentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid comment id")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "comment not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading comment")
	}

	project, err := findProject(h.DB, comment.ProjectID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if comment.UserID != currentUser.ID && project.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "not permitted to delete this comment")
	}

	// Deleting a comment takes its whole reply subtree with it,
	// walked breadth-first so no replies are left orphaned.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		ids := []uuid.UUID{comment.ID}
		frontier := []uuid.UUID{comment.ID}
		for len(frontier) > 0 {
			var childIDs []uuid.UUID
			if err := tx.Model(&models.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &childIDs).Error; err != nil {
				return err
			}
			ids = append(ids, childIDs...)
			frontier = childIDs
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting comment")
	}

	logger.InfoWithUser(currentUser.ID.String(), "comment_deleted", map[string]interface{}{
		"project_id": comment.ProjectID.String(),
		"comment_id": comment.ID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
