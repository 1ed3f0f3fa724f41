package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecthub/backend/internal/models"
	"gorm.io/gorm"
)

// CheckinService manages the checkout marker and versioned checkins.
// The version counter is computed and inserted inside one transaction,
// backed by a unique (project, version) index.
type CheckinService struct {
	DB *gorm.DB
}

func NewCheckinService(db *gorm.DB) *CheckinService {
	return &CheckinService{DB: db}
}

// Checkout marks userID as the project's single active editor. Calling
// it again while holding the checkout is a no-op.
func (s *CheckinService) Checkout(ctx context.Context, project *models.Project, userID uuid.UUID) error {
	if project.CheckedOutByID != nil {
		if *project.CheckedOutByID == userID {
			return nil
		}
		return ErrCheckedOut
	}

	if err := s.DB.WithContext(ctx).Model(project).Update("checked_out_by_id", userID).Error; err != nil {
		return err
	}
	project.CheckedOutByID = &userID
	return nil
}

// Create snapshots the session ledger into a new checkin, clears the
// ledger and releases the checkout.
func (s *CheckinService) Create(ctx context.Context, project *models.Project, userID uuid.UUID, message string) (*models.Checkin, error) {
	if project.CheckedOutByID == nil || *project.CheckedOutByID != userID {
		return nil, ErrNotCheckedOut
	}

	var checkin models.Checkin
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int
		err := tx.Model(&models.Checkin{}).
			Where("project_id = ?", project.ID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&latest).Error
		if err != nil {
			return err
		}

		checkin = models.Checkin{
			ProjectID: project.ID,
			UserID:    userID,
			Message:   message,
			Version:   latest + 1,
			Changes:   project.SessionChanges,
		}
		if err := tx.Create(&checkin).Error; err != nil {
			return err
		}

		// Selecting the columns forces their zero values through,
		// with the ledger going via its json serializer.
		release := models.Project{SessionChanges: models.ChangeSet{}}
		return tx.Model(project).
			Select("session_changes", "checked_out_by_id").
			Updates(&release).Error
	})
	if err != nil {
		return nil, err
	}

	project.SessionChanges = models.ChangeSet{}
	project.CheckedOutByID = nil
	return &checkin, nil
}

func (s *CheckinService) List(ctx context.Context, projectID uuid.UUID) ([]models.Checkin, error) {
	var checkins []models.Checkin
	err := s.DB.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("version DESC").
		Find(&checkins).Error
	return checkins, err
}
