package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/storage"
	"gorm.io/gorm"
)

// TreeService manages a project's flat file/folder collection as a
// virtual hierarchy. Entry rows carry metadata; file contents live in
// object storage under the row's StoragePath. Storage may be nil (used
// by tests), in which case only the rows are maintained.
type TreeService struct {
	DB      *gorm.DB
	Storage *storage.MinIOClient
}

func NewTreeService(db *gorm.DB, storageClient *storage.MinIOClient) *TreeService {
	return &TreeService{DB: db, Storage: storageClient}
}

type AddFileInput struct {
	Name      string
	Path      string
	Content   []byte
	MimeType  string
	CreatedBy uuid.UUID
}

type UpdateEntryInput struct {
	Name    *string
	Content []byte
	// HasContent distinguishes "replace with empty content" from
	// "content not supplied".
	HasContent bool
	MimeType   string
}

// NormalizePath collapses a virtual path to its canonical "/"-rooted
// form ("" -> "/", "docs/" -> "/docs").
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// AddFile upserts a file entry at (path, name). An existing file is
// overwritten in place and reported as modified; a fresh entry is
// reported as added. Size is always recomputed from the content.
func (s *TreeService) AddFile(ctx context.Context, project *models.Project, input AddFileInput) (*models.ProjectFile, bool, error) {
	dir := NormalizePath(input.Path)

	var entry models.ProjectFile
	err := s.DB.WithContext(ctx).Where(
		"project_id = ? AND path = ? AND name = ? AND type = ?",
		project.ID, dir, input.Name, models.EntryTypeFile,
	).First(&entry).Error

	created := false
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		created = true
		entry = models.ProjectFile{
			ProjectID:   project.ID,
			Name:        input.Name,
			Path:        dir,
			Type:        models.EntryTypeFile,
			CreatedByID: input.CreatedBy,
			StoragePath: objectName(project.ID, input.Name),
		}
	default:
		return nil, false, err
	}

	entry.MimeType = input.MimeType
	entry.Size = int64(len(input.Content))

	if s.Storage != nil {
		if err := s.Storage.Put(ctx, entry.StoragePath, input.Content, input.MimeType); err != nil {
			return nil, false, err
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if created {
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			return s.recordChange(tx, project, models.ChangeAdded, entry.Name)
		}

		updates := map[string]interface{}{
			"mime_type": entry.MimeType,
			"size":      entry.Size,
		}
		if err := tx.Model(&entry).Updates(updates).Error; err != nil {
			return err
		}
		return s.recordChange(tx, project, models.ChangeModified, entry.Name)
	})
	if err != nil {
		if created && s.Storage != nil {
			_ = s.Storage.Delete(ctx, entry.StoragePath)
		}
		return nil, false, err
	}

	return &entry, created, nil
}

func (s *TreeService) AddFolder(ctx context.Context, project *models.Project, name, dir string, createdBy uuid.UUID) (*models.ProjectFile, error) {
	dir = NormalizePath(dir)

	var existing models.ProjectFile
	err := s.DB.WithContext(ctx).Where(
		"project_id = ? AND path = ? AND name = ? AND type = ?",
		project.ID, dir, name, models.EntryTypeFolder,
	).First(&existing).Error
	if err == nil {
		return nil, ErrFolderExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entry := models.ProjectFile{
		ProjectID:   project.ID,
		Name:        name,
		Path:        dir,
		Type:        models.EntryTypeFolder,
		CreatedByID: createdBy,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return s.recordChange(tx, project, models.ChangeAdded, entry.Name)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes a file, or a folder together with its whole
// subtree in a single pass. Returns the removed entry's display name.
func (s *TreeService) DeleteEntry(ctx context.Context, project *models.Project, entryID uuid.UUID) (string, error) {
	var entry models.ProjectFile
	err := s.DB.WithContext(ctx).First(&entry, "id = ? AND project_id = ?", entryID, project.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrEntryNotFound
		}
		return "", err
	}

	var orphanedObjects []string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry.IsFolder() {
			prefix := entry.FullPath()

			var descendants []models.ProjectFile
			if err := tx.Where(
				"project_id = ? AND (path = ? OR path LIKE ?)",
				project.ID, prefix, prefix+"/%",
			).Find(&descendants).Error; err != nil {
				return err
			}
			for _, d := range descendants {
				if d.StoragePath != "" {
					orphanedObjects = append(orphanedObjects, d.StoragePath)
				}
			}

			if err := tx.Where(
				"project_id = ? AND (path = ? OR path LIKE ?)",
				project.ID, prefix, prefix+"/%",
			).Delete(&models.ProjectFile{}).Error; err != nil {
				return err
			}
		} else if entry.StoragePath != "" {
			orphanedObjects = append(orphanedObjects, entry.StoragePath)
		}

		if err := tx.Delete(&models.ProjectFile{}, "id = ?", entry.ID).Error; err != nil {
			return err
		}
		return s.recordChange(tx, project, models.ChangeDeleted, entry.Name)
	})
	if err != nil {
		return "", err
	}

	if s.Storage != nil {
		s.Storage.DeleteMany(ctx, orphanedObjects)
	}
	return entry.Name, nil
}

// UpdateEntry renames an entry and/or replaces a file's content.
// Supplying content for a folder fails with ErrNotAFile.
func (s *TreeService) UpdateEntry(ctx context.Context, project *models.Project, entryID uuid.UUID, input UpdateEntryInput) (*models.ProjectFile, error) {
	var entry models.ProjectFile
	err := s.DB.WithContext(ctx).First(&entry, "id = ? AND project_id = ?", entryID, project.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	if input.HasContent && entry.IsFolder() {
		return nil, ErrNotAFile
	}

	if input.Name != nil && *input.Name != entry.Name {
		var clash models.ProjectFile
		err := s.DB.WithContext(ctx).Where(
			"project_id = ? AND path = ? AND name = ? AND type = ? AND id <> ?",
			project.ID, entry.Path, *input.Name, entry.Type, entry.ID,
		).First(&clash).Error
		if err == nil {
			return nil, ErrNameTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		entry.Name = *input.Name
		updates["name"] = entry.Name
	}
	if input.HasContent {
		entry.Size = int64(len(input.Content))
		updates["size"] = entry.Size
		if input.MimeType != "" {
			entry.MimeType = input.MimeType
			updates["mime_type"] = entry.MimeType
		}

		if s.Storage != nil {
			if err := s.Storage.Put(ctx, entry.StoragePath, input.Content, entry.MimeType); err != nil {
				return nil, err
			}
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&entry).Updates(updates).Error; err != nil {
				return err
			}
		}
		return s.recordChange(tx, project, models.ChangeModified, entry.Name)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the entries nested directly at dir. Listing matches the
// path string exactly; intermediate folders are not synthesized.
func (s *TreeService) List(ctx context.Context, projectID uuid.UUID, dir string) ([]models.ProjectFile, error) {
	dir = NormalizePath(dir)

	var entries []models.ProjectFile
	err := s.DB.WithContext(ctx).
		Where("project_id = ? AND path = ?", projectID, dir).
		Order("type DESC, name ASC"). // folders before files
		Find(&entries).Error
	return entries, err
}

func (s *TreeService) GetEntry(ctx context.Context, projectID, entryID uuid.UUID) (*models.ProjectFile, error) {
	var entry models.ProjectFile
	err := s.DB.WithContext(ctx).First(&entry, "id = ? AND project_id = ?", entryID, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Content fetches a file's bytes from object storage.
func (s *TreeService) Content(ctx context.Context, entry *models.ProjectFile) ([]byte, error) {
	if entry.IsFolder() {
		return nil, ErrNotAFile
	}
	if s.Storage == nil {
		return []byte{}, nil
	}
	return s.Storage.Get(ctx, entry.StoragePath)
}

// recordChange appends to the session ledger while the project is
// checked out; otherwise it is a no-op.
func (s *TreeService) recordChange(tx *gorm.DB, project *models.Project, kind models.ChangeKind, name string) error {
	if project.CheckedOutByID == nil {
		return nil
	}
	project.SessionChanges.Record(kind, name)
	// A struct-based Updates goes through the field's json serializer;
	// a raw column Update would hand the driver a bare struct.
	return tx.Model(project).
		Select("session_changes").
		Updates(&models.Project{SessionChanges: project.SessionChanges}).Error
}

func objectName(projectID uuid.UUID, name string) string {
	return fmt.Sprintf("%s/%s/%s", projectID.String(), uuid.New().String(), name)
}
