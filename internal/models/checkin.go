package models

import "github.com/google/uuid"

// Checkin is an immutable versioned snapshot of the changes made to a
// project's files since the previous checkin. Versions start at 1 and
// are gapless per project.
type Checkin struct {
	BaseModel
	ProjectID uuid.UUID `json:"projectID" gorm:"type:uuid;not null;index;uniqueIndex:idx_project_version"`
	UserID    uuid.UUID `json:"userID" gorm:"type:uuid;not null;index"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Version   int       `json:"version" gorm:"not null;uniqueIndex:idx_project_version"`
	Changes   ChangeSet `json:"changes" gorm:"type:jsonb;serializer:json"`

	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
	Project Project `json:"-" gorm:"foreignKey:ProjectID;references:ID"`
}

func (Checkin) TableName() string {
	return "checkins"
}
