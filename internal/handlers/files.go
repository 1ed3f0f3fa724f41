package handlers

import (
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
)

type FilesHandler struct {
	DB      *gorm.DB
	Tree    *services.TreeService
	Members *services.MembershipService
}

func NewFilesHandler(db *gorm.DB, tree *services.TreeService, members *services.MembershipService) *FilesHandler {
	return &FilesHandler{DB: db, Tree: tree, Members: members}
}

// loadProject resolves the :id route param and enforces read or write
// access for the current user before any tree operation runs. On
// failure it returns the status and message for the caller to send.
func (h *FilesHandler) loadProject(c *fiber.Ctx, user *models.User, needWrite bool) (*models.Project, *fiber.Error) {
	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid project id")
	}

	project, err := findProject(h.DB, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "project not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed loading project")
	}

	allowed := h.Members.CanRead(c.Context(), project, user.ID)
	if needWrite {
		allowed = h.Members.CanWrite(c.Context(), project, user.ID)
	}
	if !allowed {
		logger.WarnWithUser(user.ID.String(), "permission_denied", map[string]interface{}{
			"project_id":  project.ID.String(),
			"needs_write": needWrite,
		})
		return nil, fiber.NewError(fiber.StatusForbidden, "project access denied")
	}
	return project, nil
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, loadErr := h.loadProject(c, currentUser, true)
	if loadErr != nil {
		return utils.Error(c, loadErr.Code, loadErr.Message)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	content, err := io.ReadAll(stream)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading uploaded file")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	entry, created, err := h.Tree.AddFile(c.Context(), project, services.AddFileInput{
		Name:      filename,
		Path:      c.FormValue("path"),
		Content:   content,
		MimeType:  contentType,
		CreatedBy: currentUser.ID,
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_uploaded", map[string]interface{}{
		"project_id": project.ID.String(),
		"file_id":    entry.ID.String(),
		"file_name":  entry.Name,
		"path":       entry.Path,
		"file_size":  entry.Size,
		"overwrite":  !created,
	})

	status := fiber.StatusCreated
	if !created {
		status = fiber.StatusOK
	}
	return utils.Success(c, status, entry)
}

type createFolderRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (h *FilesHandler) CreateFolder(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, loadErr := h.loadProject(c, currentUser, true)
	if loadErr != nil {
		return utils.Error(c, loadErr.Code, loadErr.Message)
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || strings.Contains(name, "/") {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder name")
	}

	folder, err := h.Tree.AddFolder(c.Context(), project, name, req.Path, currentUser.ID)
	if err != nil {
		if errors.Is(err, services.ErrFolderExists) {
			return utils.Error(c, fiber.StatusConflict, "folder already exists")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating folder")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_created", map[string]interface{}{
		"project_id": project.ID.String(),
		"folder_id":  folder.ID.String(),
		"path":       folder.FullPath(),
	})

	return utils.Success(c, fiber.StatusCreated, folder)
}

func (h *FilesHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, loadErr := h.loadProject(c, currentUser, false)
	if loadErr != nil {
		return utils.Error(c, loadErr.Code, loadErr.Message)
	}

	entries, err := h.Tree.List(c.Context(), project.ID, c.Query("path", "/"))
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}

	return utils.Success(c, fiber.StatusOK, entries)
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, loadErr := h.loadProject(c, currentUser, false)
	if loadErr != nil {
		return utils.Error(c, loadErr.Code, loadErr.Message)
	}

	entryID, err := parseUUID(c.Params("fileId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	entry, err := h.Tree.GetEntry(c.Context(), project.ID, entryID)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	return utils.Success(c, fiber.StatusOK, entry)
}

func (h *FilesHandler) Download(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, loadErr := h.loadProject(c, currentUser, false)
	if loadErr != nil {
		return utils.Error(c, loadErr.Code, loadErr.Message)
	}

	entryID, err := parseUUID(c.Params("fileId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	entry, err := h.Tree.GetEntry(c.Context(), project.ID, entryID)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}
	if entry.IsFolder() {
		return utils.Error(c, fiber.StatusBadRequest, "cannot download a folder")
	}

	content, err := h.Tree.Content(c.Context(), entry)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading file content")
	}

	c.Set(fiber.HeaderContentType, entry.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+entry.Name+`"`)
	return c.Send(content)
}

type updateEntryRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

func (h *FilesHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, loadErr := h.loadProject(c, currentUser, true)
	if loadErr != nil {
		return utils.Error(c, loadErr.Code, loadErr.Message)
	}

	entryID, err := parseUUID(c.Params("fileId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req updateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == nil && req.Content == nil {
		return utils.Error(c, fiber.StatusBadRequest, "nothing to update")
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" || strings.Contains(trimmed, "/") {
			return utils.Error(c, fiber.StatusBadRequest, "invalid name")
		}
		req.Name = &trimmed
	}

	input := services.UpdateEntryInput{Name: req.Name}
	if req.Content != nil {
		input.Content = []byte(*req.Content)
		input.HasContent = true
	}

	entry, err := h.Tree.UpdateEntry(c.Context(), project, entryID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEntryNotFound):
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		case errors.Is(err, services.ErrNotAFile):
			return utils.Error(c, fiber.StatusBadRequest, "folders have no content")
		case errors.Is(err, services.ErrNameTaken):
			return utils.Error(c, fiber.StatusConflict, "an entry with this name already exists")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating file")
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_updated", map[string]interface{}{
		"project_id": project.ID.String(),
		"file_id":    entry.ID.String(),
		"file_name":  entry.Name,
	})

	return utils.Success(c, fiber.StatusOK, entry)
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	project, loadErr := h.loadProject(c, currentUser, true)
	if loadErr != nil {
		return utils.Error(c, loadErr.Code, loadErr.Message)
	}

	entryID, err := parseUUID(c.Params("fileId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	name, err := h.Tree.DeleteEntry(c.Context(), project, entryID)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting entry")
	}

	logger.InfoWithUser(currentUser.ID.String(), "entry_deleted", map[string]interface{}{
		"project_id": project.ID.String(),
		"entry_id":   entryID.String(),
		"entry_name": name,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true, "name": name})
}
