package handlers

import (
	"strings"

	"github.com/google/uuid"
	"github.com/projecthub/backend/internal/models"
	"gorm.io/gorm"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func findProject(db *gorm.DB, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func parseMemberRole(value string) (models.ProjectMemberRole, bool) {
	switch models.ProjectMemberRole(strings.ToLower(strings.TrimSpace(value))) {
	case models.MemberRoleAdmin:
		return models.MemberRoleAdmin, true
	case models.MemberRoleCollaborator:
		return models.MemberRoleCollaborator, true
	case models.MemberRoleViewer:
		return models.MemberRoleViewer, true
	default:
		return "", false
	}
}
