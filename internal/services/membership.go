package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/projecthub/backend/internal/models"
	"gorm.io/gorm"
)

// MembershipService manages per-project collaborator roles. Membership
// is granted immediately on invite; there is no acceptance handshake.
type MembershipService struct {
	DB *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{DB: db}
}

func (s *MembershipService) Invite(ctx context.Context, project *models.Project, inviterID, targetID uuid.UUID, role models.ProjectMemberRole) (*models.ProjectMember, error) {
	if inviterID != project.OwnerID {
		return nil, ErrNotOwner
	}
	if targetID == project.OwnerID {
		return nil, ErrAlreadyMember
	}

	var target models.User
	if err := s.DB.WithContext(ctx).First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var existing models.ProjectMember
	err := s.DB.WithContext(ctx).Where(
		"project_id = ? AND user_id = ?", project.ID, targetID,
	).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyMember
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    targetID,
		Role:      role,
		JoinedAt:  time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, err
	}

	member.User = target
	return &member, nil
}

// Remove drops a membership. Only the project owner may remove others;
// any member may remove themselves (leave).
func (s *MembershipService) Remove(ctx context.Context, project *models.Project, actorID, targetID uuid.UUID) error {
	var member models.ProjectMember
	err := s.DB.WithContext(ctx).Where(
		"project_id = ? AND user_id = ?", project.ID, targetID,
	).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if actorID != project.OwnerID && actorID != targetID {
		return ErrNotPermitted
	}

	return s.DB.WithContext(ctx).Delete(&models.ProjectMember{}, "id = ?", member.ID).Error
}

func (s *MembershipService) List(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := s.DB.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// CanRead reports whether userID may see the project: the owner or any
// member, role regardless.
func (s *MembershipService) CanRead(ctx context.Context, project *models.Project, userID uuid.UUID) bool {
	if userID == project.OwnerID {
		return true
	}
	_, ok := s.roleOf(ctx, project.ID, userID)
	return ok
}

// CanWrite reports whether userID may mutate the project's tree and
// checkins: the owner, or a member whose role is not viewer.
func (s *MembershipService) CanWrite(ctx context.Context, project *models.Project, userID uuid.UUID) bool {
	if userID == project.OwnerID {
		return true
	}
	role, ok := s.roleOf(ctx, project.ID, userID)
	return ok && role != models.MemberRoleViewer
}

func (s *MembershipService) roleOf(ctx context.Context, projectID, userID uuid.UUID) (models.ProjectMemberRole, bool) {
	var member models.ProjectMember
	err := s.DB.WithContext(ctx).Where(
		"project_id = ? AND user_id = ?", projectID, userID,
	).First(&member).Error
	if err != nil {
		return "", false
	}
	return member.Role, true
}
