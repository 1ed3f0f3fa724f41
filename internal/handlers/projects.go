package handlers

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/internal/storage"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
	"gorm.io/gorm"
)

type ProjectsHandler struct {
	DB       *gorm.DB
	Tree     *services.TreeService
	Checkins *services.CheckinService
	Members  *services.MembershipService
	Storage  *storage.MinIOClient
}

func NewProjectsHandler(db *gorm.DB, tree *services.TreeService, checkins *services.CheckinService, members *services.MembershipService, storageClient *storage.MinIOClient) *ProjectsHandler {
	return &ProjectsHandler{DB: db, Tree: tree, Checkins: checkins, Members: members, Storage: storageClient}
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	InitReadme  bool    `json:"initReadme"`
}

func (r createProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 150)),
	)
}

func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     currentUser.ID,
	}

	if err := h.DB.Create(&project).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating project")
	}

	if req.InitReadme {
		readme := fmt.Sprintf("# %s\n", project.Name)
		_, _, err := h.Tree.AddFile(c.Context(), &project, services.AddFileInput{
			Name:      "README.md",
			Path:      "/",
			Content:   []byte(readme),
			MimeType:  "text/markdown",
			CreatedBy: currentUser.ID,
		})
		if err != nil {
			logger.ErrorWithUser(currentUser.ID.String(), "readme_seed_failed", err, map[string]interface{}{
				"project_id": project.ID.String(),
			})
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_created", map[string]interface{}{
		"project_id":   project.ID.String(),
		"project_name": project.Name,
	})

	return utils.Success(c, fiber.StatusCreated, project)
}

func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var projects []models.Project
	err := h.DB.Model(&models.Project{}).
		Distinct("projects.*").
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id").
		Where("projects.owner_id = ? OR project_members.user_id = ?", currentUser.ID, currentUser.ID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing projects")
	}

	return utils.Success(c, fiber.StatusOK, projects)
}

func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.Preload("Owner").Preload("Members.User").First(&project, "id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if !h.Members.CanRead(c.Context(), &project, currentUser.ID) {
		return utils.Error(c, fiber.StatusForbidden, "project access denied")
	}

	return utils.Success(c, fiber.StatusOK, project)
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
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
	if project.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the project owner can update the project")
	}

	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return utils.Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed == "" {
			updates["description"] = nil
		} else {
			updates["description"] = trimmed
		}
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(project).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating project")
	}

	return utils.Success(c, fiber.StatusOK, project)
}

func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
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
	if project.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the project owner can delete the project")
	}

	var orphanedObjects []string
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var files []models.ProjectFile
		if err := tx.Where("project_id = ?", projectID).Find(&files).Error; err != nil {
			return err
		}
		for _, f := range files {
			if f.StoragePath != "" {
				orphanedObjects = append(orphanedObjects, f.StoragePath)
			}
		}

		for _, model := range []interface{}{
			&models.ProjectFile{},
			&models.Checkin{},
			&models.Comment{},
			&models.ProjectMember{},
		} {
			if err := tx.Where("project_id = ?", projectID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Project{}, "id = ?", projectID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting project")
	}

	if h.Storage != nil {
		h.Storage.DeleteMany(c.Context(), orphanedObjects)
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_deleted", map[string]interface{}{
		"project_id": projectID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "project deleted"})
}

// Checkout marks the caller as the project's active editor so that
// subsequent file operations accumulate in the session ledger.
func (h *ProjectsHandler) Checkout(c *fiber.Ctx) error {
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

	if !h.Members.CanWrite(c.Context(), project, currentUser.ID) {
		return utils.Error(c, fiber.StatusForbidden, "project access denied")
	}

	if err := h.Checkins.Checkout(c.Context(), project, currentUser.ID); err != nil {
		if errors.Is(err, services.ErrCheckedOut) {
			return utils.Error(c, fiber.StatusConflict, "project is checked out by another user")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking out project")
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_checked_out", map[string]interface{}{
		"project_id": projectID.String(),
	})

	return utils.Success(c, fiber.StatusOK, project)
}
